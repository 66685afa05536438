package users

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/envelope"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
)

type handler struct {
	userService *Service
	authService *auth.Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, auth.CreateUserOptions(params))
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusCreated, "User created successfully", auth.NewUserResponse(user))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	current, _ := auth.UserFromContext(c)
	if current.ID != id && !current.HasPermission(models.ResourceUsers, models.OperationRead) {
		return errcodes.Forbidden("You don't have permission to read users")
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "User fetched successfully", auth.NewUserResponse(user))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.List(ctx, ListOptions(params))
	if err != nil {
		return err
	}

	resp := ListUsersResponse{Users: make([]auth.UserResponse, 0, len(users)), Total: total}
	for _, user := range users {
		resp.Users = append(resp.Users, auth.NewUserResponse(user))
	}

	return envelope.JSON(c, http.StatusOK, "Users fetched successfully", resp)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	current, _ := auth.UserFromContext(c)
	canWrite := current.HasPermission(models.ResourceUsers, models.OperationWrite)
	if current.ID != id && !canWrite {
		return errcodes.Forbidden("You don't have permission to update other users")
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if (params.Role != nil || params.IsActive != nil) && !canWrite {
		return errcodes.Forbidden("You don't have permission to change roles or account status")
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	opts := UpdateOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != user.Name {
		user.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Email != nil && *params.Email != user.Email {
		user.Email = *params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.Role != nil && *params.Role != user.RoleName() {
		role, err := h.authService.RoleByName(ctx, *params.Role)
		if err != nil {
			return err
		}
		user.RoleID = role.ID
		opts.Columns = append(opts.Columns, "role_id")
	}
	if params.IsActive != nil && *params.IsActive != user.IsActive {
		if current.ID == id && !*params.IsActive {
			return errcodes.ValidationError("You cannot deactivate your own account")
		}
		user.IsActive = *params.IsActive
		opts.Columns = append(opts.Columns, "is_active")
	}

	err = h.userService.Update(ctx, user, opts)
	if err != nil {
		return err
	}

	if params.Password != nil {
		err = h.userService.SetPassword(ctx, id, *params.Password)
		if err != nil {
			return err
		}
	}

	user, err = h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "User updated successfully", auth.NewUserResponse(user))
}

func (h *handler) deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	// Prevent deactivating yourself
	currentUserID, _ := c.Get("user_id").(int)
	if currentUserID == id {
		return errcodes.ValidationError("You cannot deactivate your own account")
	}

	err = h.userService.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	return envelope.Message(c, http.StatusOK, "User deactivated successfully")
}
