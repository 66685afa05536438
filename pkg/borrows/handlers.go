package borrows

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/envelope"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
)

type handler struct {
	borrowService *Service
}

func (h *handler) borrow(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("User not authenticated")
	}

	opts := CreateOptions{
		UserID:  user.ID,
		BookID:  params.BookID,
		Initial: models.BorrowStatusBorrowed,
	}
	if params.DueDate != "" {
		day, err := time.Parse("2006-01-02", params.DueDate)
		if err != nil {
			return errcodes.ValidationError("Due date must be a valid date")
		}
		due := day.Add(24*time.Hour - time.Second)
		if !due.After(time.Now()) {
			return errcodes.ValidationError("Due date must be in the future")
		}
		opts.DueDate = &due
	}

	borrow, err := h.borrowService.Create(ctx, opts)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusCreated, "Book borrowed successfully", newBorrowResponse(borrow))
}

func (h *handler) request(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateRequestPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("User not authenticated")
	}

	borrow, err := h.borrowService.Create(ctx, CreateOptions{
		UserID:  user.ID,
		BookID:  params.BookID,
		Initial: models.BorrowStatusPending,
	})
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusCreated, "Borrow request submitted successfully", newBorrowResponse(borrow))
}

func (h *handler) list(c echo.Context) error {
	return h.listWith(c, false, false, "Borrow records fetched successfully")
}

func (h *handler) listMine(c echo.Context) error {
	return h.listWith(c, true, false, "User borrow records fetched successfully")
}

func (h *handler) listRequests(c echo.Context) error {
	return h.listWith(c, false, true, "Borrow requests fetched successfully")
}

func (h *handler) listWith(c echo.Context, mine, byRequestDate bool, message string) error {
	ctx := c.Request().Context()

	params := ListBorrowsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListOptions{
		Status:             params.Status,
		OrderByRequestDate: byRequestDate,
		Limit:              &params.Limit,
		Offset:             &params.Offset,
	}
	if mine {
		user, ok := auth.UserFromContext(c)
		if !ok {
			return errcodes.Unauthorized("User not authenticated")
		}
		opts.UserID = &user.ID
	}

	borrows, total, err := h.borrowService.List(ctx, opts)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, message, ListBorrowsResponse{
		Borrows: newBorrowResponses(borrows),
		Total:   total,
	})
}

func (h *handler) returnBook(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrow record")
	}

	borrow, err := h.borrowService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	// Borrowers return their own books; staff can check in anyone's.
	user, _ := auth.UserFromContext(c)
	if borrow.UserID != user.ID && !user.HasPermission(models.ResourceBorrows, models.OperationApprove) {
		return errcodes.Forbidden("You can only return your own books")
	}

	borrow, err = h.borrowService.Return(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Book returned successfully", newBorrowResponse(borrow))
}

func (h *handler) approve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrow request")
	}

	borrow, err := h.borrowService.Approve(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Borrow request approved successfully", newBorrowResponse(borrow))
}

func (h *handler) reject(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrow request")
	}

	borrow, err := h.borrowService.Reject(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Borrow request rejected successfully", newBorrowResponse(borrow))
}
