package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// A user has at most one pending request and at most one copy on loan
		// per book.
		_, err := db.Exec(`CREATE UNIQUE INDEX ux_borrows_pending ON borrows (user_id, book_id) WHERE status = 'pending'`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_borrows_holding ON borrows (user_id, book_id) WHERE status IN ('approved', 'borrowed', 'overdue')`)
		if err != nil {
			return errors.WithStack(err)
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, index := range []string{"ux_borrows_holding", "ux_borrows_pending"} {
			if _, err := db.Exec("DROP INDEX IF EXISTS " + index); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
