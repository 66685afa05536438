package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	grants := []struct {
		role        string
		permissions map[string][]string
	}{
		{
			role: "admin",
			permissions: map[string][]string{
				"books":   {"read", "write", "approve"},
				"borrows": {"read", "write", "approve"},
				"users":   {"read", "write", "approve"},
				"roles":   {"read", "write", "approve"},
			},
		},
		{
			role: "librarian",
			permissions: map[string][]string{
				"books":   {"read", "write"},
				"borrows": {"read", "write", "approve"},
				"users":   {"read"},
				"roles":   {"read"},
			},
		},
		{
			role: "borrower",
			permissions: map[string][]string{
				"books":   {"read"},
				"borrows": {"write"},
			},
		},
	}

	up := func(_ context.Context, db *bun.DB) error {
		for _, g := range grants {
			var roleID int
			err := db.QueryRow(`INSERT INTO roles (name, is_system) VALUES (?, TRUE) RETURNING id`, g.role).Scan(&roleID)
			if err != nil {
				return errors.WithStack(err)
			}
			for resource, operations := range g.permissions {
				for _, operation := range operations {
					_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, ?)`,
						roleID, resource, operation)
					if err != nil {
						return errors.WithStack(err)
					}
				}
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DELETE FROM permissions WHERE role_id IN (SELECT id FROM roles WHERE is_system = TRUE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DELETE FROM roles WHERE is_system = TRUE`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
