package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/binder"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/migrations"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// newTestServer mounts the auth routes under /api the same way the server
// does.
func newTestServer(t *testing.T, db *bun.DB) (*echo.Echo, *Service, *Middleware) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	svc, mw := RegisterRoutes(e.Group("/api"), db, config.NewForTest())
	return e, svc, mw
}

func createUser(ctx context.Context, t *testing.T, svc *Service, email, role string) *models.User {
	t.Helper()

	user, err := svc.CreateUser(ctx, CreateUserOptions{
		Name:     "Test " + role,
		Email:    email,
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}
