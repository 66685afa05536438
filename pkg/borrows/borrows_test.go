package borrows

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/migrations"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type fixture struct {
	db          *bun.DB
	cfg         *config.Config
	svc         *Service
	books       *books.Service
	authService *auth.Service
	users       int
}

func newTestDB(t *testing.T) *bun.DB {
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

func newFixture(t *testing.T, db *bun.DB) *fixture {
	t.Helper()
	cfg := config.NewForTest()
	bookService := books.NewService(db, cfg)
	return &fixture{
		db:          db,
		cfg:         cfg,
		svc:         NewService(db, bookService, cfg),
		books:       bookService,
		authService: auth.NewService(db, cfg),
	}
}

func (f *fixture) createUser(ctx context.Context, t *testing.T, role string) *models.User {
	t.Helper()
	f.users++
	user, err := f.authService.CreateUser(ctx, auth.CreateUserOptions{
		Name:     fmt.Sprintf("%s %d", role, f.users),
		Email:    fmt.Sprintf("%s%d@example.com", role, f.users),
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) createBook(ctx context.Context, t *testing.T, isbn string, quantity int) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:    "Book " + isbn,
		Author:   "Author",
		ISBN:     isbn,
		Quantity: quantity,
	}
	require.NoError(t, f.books.CreateBook(ctx, book))
	return book
}

func (f *fixture) availableCopies(ctx context.Context, t *testing.T, bookID int) int {
	t.Helper()
	book, err := f.books.RetrieveBook(ctx, bookID)
	require.NoError(t, err)
	return book.AvailableCopies
}
