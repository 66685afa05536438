package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DefaultBookGenre      = "General"
	DefaultBookCoverImage = "default-cover.jpg"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Title           string    `bun:",nullzero" json:"title"`
	Author          string    `bun:",nullzero" json:"author"`
	ISBN            string    `bun:"isbn,nullzero" json:"isbn"`
	Genre           string    `bun:",nullzero" json:"genre"`
	PublicationYear int       `json:"publication_year"`
	Description     string    `json:"description"`
	Quantity        int       `json:"quantity"`
	AvailableCopies int       `json:"available_copies"`
	CoverImage      string    `bun:",nullzero" json:"cover_image"`
	Version         int       `json:"-"`
}

// CopiesOnLoan is the number of copies held by approved or borrowed records.
func (b *Book) CopiesOnLoan() int {
	return b.Quantity - b.AvailableCopies
}

// CountersValid reports whether 0 <= available_copies <= quantity.
func (b *Book) CountersValid() bool {
	return b.Quantity >= 0 && b.AvailableCopies >= 0 && b.AvailableCopies <= b.Quantity
}

// BookSummary is the subset of a book shown next to borrow records.
type BookSummary struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// Summary returns the display subset of the book.
func (b *Book) Summary() *BookSummary {
	if b == nil {
		return nil
	}
	return &BookSummary{ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}
