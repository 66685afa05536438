package testutils

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/shelfwise/shelfwise/pkg/envelope"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
	bookService *books.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin librarian borrower"`
}

// createUser creates a user with any role, without an admin session.
// POST /api/test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.CreateUser(ctx, auth.CreateUserOptions{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusCreated, "Test user created", auth.NewUserResponse(user))
}

// createBookRequest is the request body for creating a test book.
type createBookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// createBook creates a book without the catalog permission checks.
// POST /api/test/books.
func (h *handler) createBook(c echo.Context) error {
	ctx := c.Request().Context()

	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:    req.Title,
		Author:   req.Author,
		ISBN:     req.ISBN,
		Quantity: req.Quantity,
	}
	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusCreated, "Test book created", book)
}

// deleteAllResponse is the response body for deleting all test data.
type deleteAllResponse struct {
	Borrows int `json:"borrows"`
	Books   int `json:"books"`
	Users   int `json:"users"`
}

// deleteAll removes every borrow record, book and user. Seeded roles stay.
// DELETE /api/test/data.
func (h *handler) deleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	resp := deleteAllResponse{}

	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Borrows reference users, so they go first.
		for _, target := range []struct {
			model interface{}
			count *int
		}{
			{(*models.Borrow)(nil), &resp.Borrows},
			{(*models.Book)(nil), &resp.Books},
			{(*models.User)(nil), &resp.Users},
		} {
			result, err := tx.NewDelete().
				Model(target.model).
				Where("1=1").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			deleted, _ := result.RowsAffected()
			*target.count = int(deleted)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Test data deleted", resp)
}
