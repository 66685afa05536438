package roles

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/migrations"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

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

func TestServiceList_SeededRoles(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	roles, total, err := svc.List(ctx, ListOptions{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, roles, 3)

	byName := map[string]*models.Role{}
	for _, role := range roles {
		assert.True(t, role.IsSystem)
		byName[role.Name] = role
	}

	admin := byName[models.RoleAdmin]
	require.NotNil(t, admin)
	for _, resource := range []string{models.ResourceBooks, models.ResourceBorrows, models.ResourceUsers, models.ResourceRoles} {
		for _, operation := range []string{models.OperationRead, models.OperationWrite, models.OperationApprove} {
			assert.True(t, admin.HasPermission(resource, operation), "admin %s:%s", resource, operation)
		}
	}

	librarian := byName[models.RoleLibrarian]
	require.NotNil(t, librarian)
	assert.True(t, librarian.HasPermission(models.ResourceBooks, models.OperationWrite))
	assert.True(t, librarian.HasPermission(models.ResourceBorrows, models.OperationApprove))
	assert.True(t, librarian.HasPermission(models.ResourceUsers, models.OperationRead))
	assert.False(t, librarian.HasPermission(models.ResourceUsers, models.OperationWrite))

	borrower := byName[models.RoleBorrower]
	require.NotNil(t, borrower)
	assert.True(t, borrower.HasPermission(models.ResourceBooks, models.OperationRead))
	assert.True(t, borrower.HasPermission(models.ResourceBorrows, models.OperationWrite))
	assert.False(t, borrower.HasPermission(models.ResourceBorrows, models.OperationRead))
	assert.False(t, borrower.HasPermission(models.ResourceBooks, models.OperationWrite))
}

func TestServiceRetrieve(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	role, err := svc.Retrieve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role.Name)
	assert.Len(t, role.Permissions, 12)

	_, err = svc.Retrieve(ctx, 99)
	assert.ErrorIs(t, err, errcodes.NotFound("Role"))
}
