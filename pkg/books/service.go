package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfwise/shelfwise/pkg/binder"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/database"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

// Borrow statuses that keep a book from being deleted.
var activeBorrowStatuses = []string{
	models.BorrowStatusPending,
	models.BorrowStatusApproved,
	models.BorrowStatusBorrowed,
	models.BorrowStatusOverdue,
}

type ListBooksOptions struct {
	Limit     *int
	Offset    *int
	Search    *string
	Genre     *string
	Available *bool
}

type UpdateBookOptions struct {
	Columns []string
	// Quantity, when set, changes the number of owned copies. The number of
	// copies on loan is preserved, so available_copies moves by the same
	// amount.
	Quantity *int
}

type Service struct {
	db          *bun.DB
	maxAttempts int
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{db, cfg.TransactionMaxAttempts}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	book.ISBN = binder.NormalizeISBN(book.ISBN)
	if book.Genre == "" {
		book.Genre = models.DefaultBookGenre
	}
	if book.CoverImage == "" {
		book.CoverImage = models.DefaultBookCoverImage
	}
	if book.PublicationYear == 0 {
		book.PublicationYear = time.Now().Year()
	}
	book.AvailableCopies = book.Quantity
	book.Version = 0

	if err := svc.ensureUniqueISBN(ctx, svc.db, book.ISBN, 0); err != nil {
		return err
	}

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// RetrieveBook loads a book by ID.
func (svc *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	return svc.RetrieveBookTx(ctx, svc.db, id)
}

// RetrieveBookTx loads a book by ID through the given connection, so that
// transactions read their own writes.
func (svc *Service) RetrieveBookTx(ctx context.Context, db bun.IDB, id int) (*models.Book, error) {
	book := &models.Book{}
	err := db.NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.id ASC")

	if opts.Search != nil && *opts.Search != "" {
		like := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(b.title) LIKE ?", like).
				WhereOr("LOWER(b.author) LIKE ?", like).
				WhereOr("b.isbn LIKE ?", like)
		})
	}
	if opts.Genre != nil {
		q = q.Where("b.genre = ? COLLATE NOCASE", *opts.Genre)
	}
	if opts.Available != nil {
		if *opts.Available {
			q = q.Where("b.available_copies > 0")
		} else {
			q = q.Where("b.available_copies = 0")
		}
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

// UpdateBook writes the given columns of the book. A quantity change is
// applied against the stored counters inside a transaction.
func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && opts.Quantity == nil {
		return nil
	}
	book.ISBN = binder.NormalizeISBN(book.ISBN)

	return database.RunInTxWithRetry(ctx, svc.db, svc.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		current, err := svc.RetrieveBookTx(ctx, tx, book.ID)
		if err != nil {
			return err
		}

		for _, column := range opts.Columns {
			if column == "isbn" {
				if err := svc.ensureUniqueISBN(ctx, tx, book.ISBN, book.ID); err != nil {
					return err
				}
			}
		}

		columns := append([]string{}, opts.Columns...)
		book.Quantity = current.Quantity
		book.AvailableCopies = current.AvailableCopies
		if opts.Quantity != nil && *opts.Quantity != current.Quantity {
			onLoan := current.CopiesOnLoan()
			if *opts.Quantity < onLoan {
				return errcodes.ValidationError("Quantity cannot be less than the number of copies on loan")
			}
			book.Quantity = *opts.Quantity
			book.AvailableCopies = *opts.Quantity - onLoan
			columns = append(columns, "quantity", "available_copies")
		}
		if len(columns) == 0 {
			return nil
		}

		book.Version = current.Version + 1
		book.UpdatedAt = time.Now()
		columns = append(columns, "version", "updated_at")

		res, err := tx.NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Where("version = ?", current.Version).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return database.CheckAffected(res)
	})
}

// DeleteBook removes a book that no borrow record currently holds or waits
// on.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	return database.RunInTxWithRetry(ctx, svc.db, svc.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		if _, err := svc.RetrieveBookTx(ctx, tx, id); err != nil {
			return err
		}

		active, err := tx.NewSelect().
			Model((*models.Borrow)(nil)).
			Where("book_id = ?", id).
			Where("status IN (?)", bun.In(activeBorrowStatuses)).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if active {
			return errcodes.Conflict("Book has active borrow records")
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// AdjustAvailableCopies moves the book's available copy counter by delta.
// The write only applies if the row still carries the version the caller
// read and the result stays within [0, quantity]; otherwise it returns
// database.ErrConflict so the enclosing transaction can be retried.
func (svc *Service) AdjustAvailableCopies(ctx context.Context, db bun.IDB, book *models.Book, delta int) error {
	res, err := db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("available_copies = available_copies + ?", delta).
		Set("version = version + 1").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", book.ID).
		Where("version = ?", book.Version).
		Where("available_copies + ? BETWEEN 0 AND quantity", delta).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := database.CheckAffected(res); err != nil {
		return err
	}

	book.AvailableCopies += delta
	book.Version++
	return nil
}

func (svc *Service) ensureUniqueISBN(ctx context.Context, db bun.IDB, isbn string, excludeID int) error {
	q := db.NewSelect().
		Model((*models.Book)(nil)).
		Where("isbn = ?", isbn)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.ValidationError("A book with this ISBN already exists")
	}
	return nil
}
