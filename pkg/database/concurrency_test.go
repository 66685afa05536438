package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// newTestConfig creates a config with a temp file database so that every
// goroutine shares the same database.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "test.db")
	cfg.DatabaseMaxRetries = 0
	cfg.DatabaseBusyTimeout = 1_000_000 // 1ms
	return cfg
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()

	db, err := New(newTestConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE concurrency_test (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		value TEXT NOT NULL,
		worker_id INTEGER NOT NULL
	)`)
	require.NoError(t, err)

	const numWorkers = 20
	const writesPerWorker = 50

	var wg sync.WaitGroup
	var errorCount atomic.Int32

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < writesPerWorker; i++ {
				_, err := db.Exec(
					"INSERT INTO concurrency_test (value, worker_id) VALUES (?, ?)",
					fmt.Sprintf("worker-%d-write-%d", workerID, i),
					workerID,
				)
				if err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int32(0), errorCount.Load())

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM concurrency_test").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, numWorkers*writesPerWorker, count)
}

// TestConcurrentCounterDecrements runs many transactions that each read a
// bounded counter and decrement it with a version check. Exactly as many
// succeed as there were units, and the counter never goes negative.
func TestConcurrentCounterDecrements(t *testing.T) {
	t.Parallel()

	db, err := New(newTestConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE counters (
		id INTEGER PRIMARY KEY,
		available INTEGER NOT NULL CHECK (available >= 0),
		version INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO counters (id, available) VALUES (1, 3)`)
	require.NoError(t, err)

	errExhausted := fmt.Errorf("exhausted")

	const numWorkers = 10
	var wg sync.WaitGroup
	var successes atomic.Int32
	var exhausted atomic.Int32
	var unexpected atomic.Int32

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := RunInTxWithRetry(context.Background(), db, 10, func(ctx context.Context, tx bun.Tx) error {
				var available, version int
				err := tx.QueryRowContext(ctx, `SELECT available, version FROM counters WHERE id = 1`).Scan(&available, &version)
				if err != nil {
					return err
				}
				if available < 1 {
					return errExhausted
				}
				res, err := tx.ExecContext(ctx,
					`UPDATE counters SET available = available - 1, version = version + 1 WHERE id = 1 AND version = ?`,
					version)
				if err != nil {
					return err
				}
				return CheckAffected(res)
			})
			switch {
			case err == nil:
				successes.Add(1)
			case err == errExhausted:
				exhausted.Add(1)
			default:
				unexpected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), successes.Load())
	assert.Equal(t, int32(numWorkers-3), exhausted.Load())
	assert.Equal(t, int32(0), unexpected.Load())

	var available int
	err = db.QueryRow(`SELECT available FROM counters WHERE id = 1`).Scan(&available)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}
