package borrows

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/database"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/metrics"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

// Statuses of records that have a copy of the book out.
var holdingStatuses = []string{
	models.BorrowStatusApproved,
	models.BorrowStatusBorrowed,
	models.BorrowStatusOverdue,
}

type CreateOptions struct {
	UserID int
	BookID int
	// DueDate only applies to direct borrows. It defaults to now plus the
	// loan period.
	DueDate *time.Time
	// Initial is the status of the new record: borrowed for a direct borrow
	// or pending for a borrow request.
	Initial string
}

type ListOptions struct {
	UserID *int
	Status *string
	// OrderByRequestDate sorts the newest requests first instead of by ID.
	OrderByRequestDate bool
	Limit              *int
	Offset             *int
}

type Service struct {
	db          *bun.DB
	bookService *books.Service
	maxAttempts int
	loanPeriod  time.Duration
	finePerDay  float64
	now         func() time.Time
}

func NewService(db *bun.DB, bookService *books.Service, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		bookService: bookService,
		maxAttempts: cfg.TransactionMaxAttempts,
		loanPeriod:  cfg.LoanPeriod(),
		finePerDay:  cfg.FinePerDay,
		now:         time.Now,
	}
}

// Create opens a new borrow record for the user. A direct borrow takes a copy
// of the book in the same transaction; a request only records the intent.
func (svc *Service) Create(ctx context.Context, opts CreateOptions) (*models.Borrow, error) {
	transition := metrics.TransitionRequest
	switch opts.Initial {
	case models.BorrowStatusBorrowed:
		transition = metrics.TransitionBorrow
	case models.BorrowStatusPending:
	default:
		return nil, errors.Errorf("invalid initial borrow status %q", opts.Initial)
	}

	borrow := &models.Borrow{}
	err := database.RunInTxWithRetry(ctx, svc.db, svc.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.ensureActiveUser(ctx, tx, opts.UserID); err != nil {
			return err
		}
		book, err := svc.bookService.RetrieveBookTx(ctx, tx, opts.BookID)
		if err != nil {
			return err
		}

		now := svc.now()
		*borrow = models.Borrow{
			UserID:      opts.UserID,
			BookID:      opts.BookID,
			Status:      opts.Initial,
			RequestDate: now,
		}

		if opts.Initial == models.BorrowStatusBorrowed {
			if err := svc.ensureCopyAvailable(book); err != nil {
				return err
			}
			if err := svc.ensureNoRecord(ctx, tx, opts.UserID, opts.BookID, holdingStatuses,
				"User already has this book borrowed"); err != nil {
				return err
			}
			if err := svc.bookService.AdjustAvailableCopies(ctx, tx, book, -1); err != nil {
				return err
			}

			due := now.Add(svc.loanPeriod)
			if opts.DueDate != nil {
				due = *opts.DueDate
			}
			borrow.BorrowDate = &now
			borrow.DueDate = &due
		} else {
			if err := svc.ensureNoRecord(ctx, tx, opts.UserID, opts.BookID, []string{models.BorrowStatusPending},
				"You already have a pending request for this book"); err != nil {
				return err
			}
			if err := svc.ensureNoRecord(ctx, tx, opts.UserID, opts.BookID, holdingStatuses,
				"You already have this book borrowed"); err != nil {
				return err
			}
		}

		_, err = tx.NewInsert().
			Model(borrow).
			Returning("*").
			Exec(ctx)
		if opts.Initial == models.BorrowStatusPending {
			return uniqueConflict(err, "You already have a pending request for this book")
		}
		return uniqueConflict(err, "User already has this book borrowed")
	})
	metrics.RecordTransition(transition, err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("borrow record created", logger.Data{
		"borrow_id": borrow.ID,
		"user_id":   borrow.UserID,
		"book_id":   borrow.BookID,
		"status":    borrow.Status,
	})

	return svc.Retrieve(ctx, borrow.ID)
}

// Approve grants a pending request. The copy is taken and the record updated
// in one transaction.
func (svc *Service) Approve(ctx context.Context, id int) (*models.Borrow, error) {
	err := database.RunInTxWithRetry(ctx, svc.db, svc.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		borrow, err := svc.retrieveTx(ctx, tx, id, "Borrow request")
		if err != nil {
			return err
		}
		if borrow.Status != models.BorrowStatusPending {
			return errcodes.Conflict("Request is not pending")
		}

		book, err := svc.bookService.RetrieveBookTx(ctx, tx, borrow.BookID)
		if err != nil {
			return err
		}
		if err := svc.ensureCopyAvailable(book); err != nil {
			return err
		}
		if err := svc.ensureNoRecord(ctx, tx, borrow.UserID, borrow.BookID, holdingStatuses,
			"User already has this book borrowed"); err != nil {
			return err
		}
		if err := svc.bookService.AdjustAvailableCopies(ctx, tx, book, -1); err != nil {
			return err
		}

		now := svc.now()
		due := now.Add(svc.loanPeriod)
		borrow.Status = models.BorrowStatusApproved
		borrow.ApprovalDate = &now
		borrow.BorrowDate = &now
		borrow.DueDate = &due
		err = svc.transition(ctx, tx, borrow, models.BorrowStatusPending,
			"status", "approval_date", "borrow_date", "due_date")
		return uniqueConflict(err, "User already has this book borrowed")
	})
	metrics.RecordTransition(metrics.TransitionApprove, err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("borrow request approved", logger.Data{"borrow_id": id})

	return svc.Retrieve(ctx, id)
}

// Reject declines a pending request. Pending requests never hold a copy, so
// the book is untouched.
func (svc *Service) Reject(ctx context.Context, id int) (*models.Borrow, error) {
	err := database.RunInTxWithRetry(ctx, svc.db, svc.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		borrow, err := svc.retrieveTx(ctx, tx, id, "Borrow request")
		if err != nil {
			return err
		}
		if borrow.Status != models.BorrowStatusPending {
			return errcodes.Conflict("Request is not pending")
		}

		now := svc.now()
		borrow.Status = models.BorrowStatusRejected
		borrow.RejectionDate = &now
		return svc.transition(ctx, tx, borrow, models.BorrowStatusPending, "status", "rejection_date")
	})
	metrics.RecordTransition(metrics.TransitionReject, err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("borrow request rejected", logger.Data{"borrow_id": id})

	return svc.Retrieve(ctx, id)
}

// Return closes a record that holds a copy, charges the fine if it's late and
// puts the copy back on the shelf. A book that has since been deleted is
// skipped.
func (svc *Service) Return(ctx context.Context, id int) (*models.Borrow, error) {
	var fine float64
	err := database.RunInTxWithRetry(ctx, svc.db, svc.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		borrow, err := svc.retrieveTx(ctx, tx, id, "Borrow record")
		if err != nil {
			return err
		}
		if borrow.Status == models.BorrowStatusReturned {
			return errcodes.Conflict("Book already returned")
		}
		if !borrow.HoldsCopy() {
			return errcodes.Conflict("Only borrowed books can be returned")
		}

		previous := borrow.Status
		now := svc.now()
		borrow.Status = models.BorrowStatusReturned
		borrow.ReturnDate = &now
		borrow.Fine = 0
		if borrow.DueDate != nil {
			borrow.Fine = ComputeFine(*borrow.DueDate, now, svc.finePerDay)
		}
		fine = borrow.Fine

		if err := svc.transition(ctx, tx, borrow, previous, "status", "return_date", "fine"); err != nil {
			return err
		}

		book, err := svc.bookService.RetrieveBookTx(ctx, tx, borrow.BookID)
		if errors.Is(err, errcodes.NotFound("Book")) {
			logger.FromContext(ctx).Warn("returned borrow for a missing book", logger.Data{
				"borrow_id": borrow.ID,
				"book_id":   borrow.BookID,
			})
			return nil
		}
		if err != nil {
			return err
		}
		if book.AvailableCopies >= book.Quantity {
			logger.FromContext(ctx).Warn("book already has every copy on the shelf", logger.Data{
				"borrow_id": borrow.ID,
				"book_id":   book.ID,
			})
			return nil
		}
		return svc.bookService.AdjustAvailableCopies(ctx, tx, book, 1)
	})
	metrics.RecordTransition(metrics.TransitionReturn, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordFine(fine)

	logger.FromContext(ctx).Info("book returned", logger.Data{"borrow_id": id, "fine": fine})

	return svc.Retrieve(ctx, id)
}

// Retrieve loads a borrow record with its user and book.
func (svc *Service) Retrieve(ctx context.Context, id int) (*models.Borrow, error) {
	borrow := &models.Borrow{}
	err := svc.db.NewSelect().
		Model(borrow).
		Relation("User").
		Relation("Book").
		Where("br.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Borrow record")
		}
		return nil, errors.WithStack(err)
	}
	return borrow, nil
}

// List returns a page of borrow records along with the number of records
// matching the filters.
func (svc *Service) List(ctx context.Context, opts ListOptions) ([]*models.Borrow, int, error) {
	borrows := []*models.Borrow{}

	q := svc.db.NewSelect().
		Model(&borrows).
		Relation("User").
		Relation("Book")

	if opts.UserID != nil {
		q = q.Where("br.user_id = ?", *opts.UserID)
	}
	if opts.Status != nil {
		q = q.Where("br.status = ?", *opts.Status)
	}
	if opts.OrderByRequestDate {
		q = q.Order("br.request_date DESC", "br.id DESC")
	} else {
		q = q.Order("br.id ASC")
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
	return borrows, total, nil
}

func (svc *Service) retrieveTx(ctx context.Context, tx bun.IDB, id int, resource string) (*models.Borrow, error) {
	borrow := &models.Borrow{}
	err := tx.NewSelect().
		Model(borrow).
		Where("br.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound(resource)
		}
		return nil, errors.WithStack(err)
	}
	return borrow, nil
}

// transition writes the given columns, but only if the record is still in the
// status it was read in.
func (svc *Service) transition(ctx context.Context, tx bun.IDB, borrow *models.Borrow, from string, columns ...string) error {
	borrow.UpdatedAt = svc.now()
	res, err := tx.NewUpdate().
		Model(borrow).
		Column(append(columns, "updated_at")...).
		WherePK().
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return database.CheckAffected(res)
}

// uniqueConflict reports a violation of the per-book unique indexes on
// borrows as a Conflict with msg.
func uniqueConflict(err error, msg string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errcodes.Conflict(msg)
	}
	return errors.WithStack(err)
}

func (svc *Service) ensureActiveUser(ctx context.Context, tx bun.IDB, userID int) error {
	exists, err := tx.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", userID).
		Where("is_active = ?", true).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.NotFound("User")
	}
	return nil
}

func (svc *Service) ensureCopyAvailable(book *models.Book) error {
	if !book.CountersValid() {
		return errcodes.DataCorruption("Book")
	}
	if book.AvailableCopies <= 0 {
		return errcodes.NoCopiesAvailable()
	}
	return nil
}

func (svc *Service) ensureNoRecord(ctx context.Context, tx bun.IDB, userID, bookID int, statuses []string, msg string) error {
	exists, err := tx.NewSelect().
		Model((*models.Borrow)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Where("status IN (?)", bun.In(statuses)).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict(msg)
	}
	return nil
}
