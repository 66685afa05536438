package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Borrow record statuses.
const (
	BorrowStatusPending  = "pending"
	BorrowStatusApproved = "approved"
	BorrowStatusBorrowed = "borrowed"
	BorrowStatusReturned = "returned"
	BorrowStatusRejected = "rejected"
	// BorrowStatusOverdue is part of the stored vocabulary but no transition
	// writes it; overdue loans stay borrowed or approved until returned.
	BorrowStatusOverdue = "overdue"
)

type Borrow struct {
	bun.BaseModel `bun:"table:borrows,alias:br"`

	ID            int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt     time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	UserID        int        `json:"user_id"`
	BookID        int        `json:"book_id"`
	Status        string     `bun:",nullzero" json:"status"`
	RequestDate   time.Time  `json:"request_date"`
	BorrowDate    *time.Time `json:"borrow_date"`
	DueDate       *time.Time `json:"due_date"`
	ApprovalDate  *time.Time `json:"approval_date"`
	RejectionDate *time.Time `json:"rejection_date"`
	ReturnDate    *time.Time `json:"return_date"`
	Fine          float64    `json:"fine"`

	// Relations, loaded for display only.
	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}

// HoldsCopy reports whether the record currently accounts for one of the
// book's copies.
func (b *Borrow) HoldsCopy() bool {
	switch b.Status {
	case BorrowStatusApproved, BorrowStatusBorrowed, BorrowStatusOverdue:
		return true
	default:
		return false
	}
}
