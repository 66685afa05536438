package borrows

import "github.com/shelfwise/shelfwise/pkg/models"

type CreateBorrowPayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
	// DueDate is a YYYY-MM-DD date. The loan is due at the end of that day.
	DueDate string `json:"due_date" validate:"omitempty,date"`
}

type CreateRequestPayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
}

type ListBorrowsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"100" validate:"min=1,max=500"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=pending approved borrowed returned rejected overdue"`
}

// ListBorrowsResponse is one page of borrow records. Total counts every
// record matching the filters, ignoring limit and offset.
type ListBorrowsResponse struct {
	Borrows []BorrowResponse `json:"borrows"`
	Total   int              `json:"total"`
}

// BorrowResponse is a borrow record with display summaries of its user and
// book.
type BorrowResponse struct {
	*models.Borrow
	User *models.UserSummary `json:"user"`
	Book *models.BookSummary `json:"book"`
}

func newBorrowResponse(borrow *models.Borrow) BorrowResponse {
	return BorrowResponse{
		Borrow: borrow,
		User:   borrow.User.Summary(),
		Book:   borrow.Book.Summary(),
	}
}

func newBorrowResponses(borrows []*models.Borrow) []BorrowResponse {
	resp := make([]BorrowResponse, 0, len(borrows))
	for _, borrow := range borrows {
		resp = append(resp, newBorrowResponse(borrow))
	}
	return resp
}
