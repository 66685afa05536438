package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAuthenticate_RejectsInactiveUser(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	authService := NewService(db, config.NewForTest())
	middleware := NewMiddleware(authService)
	ctx := context.Background()

	user := createUser(ctx, t, authService, "gone@example.com", "")
	token, err := authService.GenerateToken(user)
	require.NoError(t, err)

	_, err = db.NewUpdate().Model((*models.User)(nil)).Set("is_active = ?", false).Where("id = ?", user.ID).Exec(ctx)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/borrow/user", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	c := e.NewContext(req, httptest.NewRecorder())

	nextCalled := false
	err = middleware.Authenticate(func(_ echo.Context) error {
		nextCalled = true
		return nil
	})(c)
	assert.ErrorIs(t, err, errcodes.Unauthorized("User not found or inactive"))
	assert.False(t, nextCalled)
}

func TestMiddlewareAuthenticate_SetsUser(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	authService := NewService(db, config.NewForTest())
	middleware := NewMiddleware(authService)
	ctx := context.Background()

	user := createUser(ctx, t, authService, "here@example.com", models.RoleLibrarian)
	token, err := authService.GenerateToken(user)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/borrow", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	c := e.NewContext(req, httptest.NewRecorder())

	err = middleware.Authenticate(func(c echo.Context) error {
		current, ok := UserFromContext(c)
		require.True(t, ok)
		assert.Equal(t, user.ID, current.ID)
		assert.Equal(t, user.ID, c.Get("user_id"))
		return nil
	})(c)
	require.NoError(t, err)
}

func TestMiddlewareRequirePermission(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	authService := NewService(db, config.NewForTest())
	middleware := NewMiddleware(authService)
	ctx := context.Background()

	borrower := createUser(ctx, t, authService, "borrower@example.com", models.RoleBorrower)
	librarian := createUser(ctx, t, authService, "librarian@example.com", models.RoleLibrarian)

	guarded := middleware.RequirePermission(models.ResourceBorrows, models.OperationApprove)(func(_ echo.Context) error {
		return nil
	})

	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodPut, "/", nil), httptest.NewRecorder())
	assert.ErrorIs(t, guarded(c), errcodes.Unauthorized("Authentication required"))

	c = e.NewContext(httptest.NewRequest(http.MethodPut, "/", nil), httptest.NewRecorder())
	c.Set("user", borrower)
	assert.ErrorIs(t, guarded(c), errcodes.Forbidden("You don't have permission to approve borrows"))

	c = e.NewContext(httptest.NewRequest(http.MethodPut, "/", nil), httptest.NewRecorder())
	c.Set("user", librarian)
	assert.NoError(t, guarded(c))
}
