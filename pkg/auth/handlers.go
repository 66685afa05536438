package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfwise/shelfwise/pkg/envelope"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

type handler struct {
	authService *Service
	frontendURL string
	production  bool
}

// NewUserResponse builds the public view of a user model.
func NewUserResponse(user *models.User) UserResponse {
	resp := UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.RoleName(),
		IsActive: user.IsActive,
	}
	if user.Role != nil {
		for _, p := range user.Role.Permissions {
			resp.Permissions = append(resp.Permissions, p.Resource+":"+p.Operation)
		}
	}
	return resp
}

func (h *handler) setSessionCookie(c echo.Context, value string, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.production || c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	}
	c.SetCookie(cookie)
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Only an admin may hand out a role other than borrower.
	if params.Role != "" && params.Role != models.RoleBorrower {
		current, ok := c.Get("user").(*models.User)
		if !ok || current.RoleName() != models.RoleAdmin {
			return errcodes.Forbidden("Only admins can register users with the " + params.Role + " role")
		}
	}

	user, err := h.authService.CreateUser(ctx, CreateUserOptions{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
		Role:     params.Role,
	})
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusCreated, "User registered successfully", NewUserResponse(user))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Email, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookie(c, token, h.authService.TokenExpiry())

	return envelope.JSON(c, http.StatusOK, "Login successful", NewUserResponse(user))
}

func (h *handler) logout(c echo.Context) error {
	h.setSessionCookie(c, "", -1)
	return envelope.Message(c, http.StatusOK, "Logout successful")
}

func (h *handler) profile(c echo.Context) error {
	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	return envelope.JSON(c, http.StatusOK, "Profile fetched successfully", NewUserResponse(user))
}

func (h *handler) forgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := ForgotPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	token, err := h.authService.RequestPasswordReset(ctx, params.Email)
	if err != nil {
		return err
	}

	resetURL := h.frontendURL + "/reset-password/" + token
	log.Info("password reset requested", logger.Data{"email": params.Email, "reset_url": resetURL})

	resp := ForgotPasswordResponse{}
	if !h.production {
		resp.ResetURL = resetURL
	}

	return envelope.JSON(c, http.StatusOK, "Password reset link sent to your email", resp)
}

func (h *handler) validateResetToken(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := h.authService.ValidateResetToken(ctx, c.Param("token")); err != nil {
		return err
	}

	return envelope.Message(c, http.StatusOK, "Valid reset token")
}

func (h *handler) resetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	params := ResetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.authService.ResetPassword(ctx, params.Token, params.Password); err != nil {
		return err
	}

	return envelope.Message(c, http.StatusOK, "Password reset successfully")
}
