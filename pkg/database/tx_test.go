package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newMemoryDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, value INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO items (id, value) VALUES (1, 0)`)
	require.NoError(t, err)
	return db
}

func itemValue(t *testing.T, db *bun.DB) int {
	t.Helper()
	var v int
	require.NoError(t, db.QueryRow(`SELECT value FROM items WHERE id = 1`).Scan(&v))
	return v
}

func TestRunInTxWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		db := newMemoryDB(t)
		attempts := 0
		err := RunInTxWithRetry(context.Background(), db, 3, func(ctx context.Context, tx bun.Tx) error {
			attempts++
			_, err := tx.ExecContext(ctx, `UPDATE items SET value = 7 WHERE id = 1`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 7, itemValue(t, db))
	})

	t.Run("retries on conflict and rolls back each failed attempt", func(t *testing.T) {
		db := newMemoryDB(t)
		attempts := 0
		err := RunInTxWithRetry(context.Background(), db, 5, func(ctx context.Context, tx bun.Tx) error {
			attempts++
			_, err := tx.ExecContext(ctx, `UPDATE items SET value = value + 1 WHERE id = 1`)
			if err != nil {
				return err
			}
			if attempts < 3 {
				return errors.WithStack(ErrConflict)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 1, itemValue(t, db))
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		db := newMemoryDB(t)
		attempts := 0
		err := RunInTxWithRetry(context.Background(), db, 2, func(_ context.Context, _ bun.Tx) error {
			attempts++
			return errors.WithStack(ErrConflict)
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 2, attempts)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		db := newMemoryDB(t)
		attempts := 0
		sentinel := errors.New("nope")
		err := RunInTxWithRetry(context.Background(), db, 5, func(ctx context.Context, tx bun.Tx) error {
			attempts++
			_, err := tx.ExecContext(ctx, `UPDATE items SET value = 9 WHERE id = 1`)
			if err != nil {
				return err
			}
			return sentinel
		})
		assert.Equal(t, sentinel, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 0, itemValue(t, db))
	})
}

func TestCheckAffected(t *testing.T) {
	t.Parallel()
	db := newMemoryDB(t)

	res, err := db.Exec(`UPDATE items SET value = 1 WHERE id = 1`)
	require.NoError(t, err)
	require.NoError(t, CheckAffected(res))

	res, err = db.Exec(`UPDATE items SET value = 1 WHERE id = 2`)
	require.NoError(t, err)
	assert.ErrorIs(t, CheckAffected(res), ErrConflict)
}
