package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// ErrConflict is returned when a conditional write matched no rows because
// another transaction changed the row first.
var ErrConflict = errors.New("row was modified concurrently")

// TxFunc is the body of a transaction. It must do all of its reads and
// writes through tx.
type TxFunc func(ctx context.Context, tx bun.Tx) error

// RunInTxWithRetry runs fn inside a transaction, retrying the whole
// transaction when it fails with ErrConflict or a SQLite busy error. Any
// other error is returned as-is, after the transaction is rolled back.
func RunInTxWithRetry(ctx context.Context, db bun.IDB, maxAttempts int, fn TxFunc) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = db.RunInTx(ctx, nil, fn)
		if err == nil {
			return nil
		}
		if !isRetryableTxError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}

		logger.FromContext(ctx).Debug("retrying transaction", logger.Data{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})

		if werr := txBackoff.wait(ctx, attempt); werr != nil {
			return errors.WithStack(werr)
		}
	}

	return errors.Wrapf(err, "transaction failed after %d attempts", maxAttempts)
}

// CheckAffected returns ErrConflict when a conditional update or delete
// didn't touch exactly one row.
func CheckAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n != 1 {
		return errors.WithStack(ErrConflict)
	}
	return nil
}

func isRetryableTxError(err error) bool {
	return errors.Is(err, ErrConflict) || isBusyError(err)
}
