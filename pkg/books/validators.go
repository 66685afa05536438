package books

import "github.com/shelfwise/shelfwise/pkg/models"

type ListBooksQuery struct {
	Limit     int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset    int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search    *string `query:"q" json:"q,omitempty" validate:"omitempty,max=100"`
	Genre     *string `query:"genre" json:"genre,omitempty" validate:"omitempty,max=100"`
	Available *bool   `query:"available" json:"available,omitempty"`
}

type CreateBookPayload struct {
	Title           string `json:"title" validate:"required,max=300" mod:"trim"`
	Author          string `json:"author" validate:"required,max=200" mod:"trim"`
	ISBN            string `json:"isbn" validate:"required,book_isbn" mod:"trim"`
	Genre           string `json:"genre" validate:"max=100" mod:"trim"`
	PublicationYear int    `json:"publication_year" validate:"omitempty,min=0,max=9999"`
	Description     string `json:"description" validate:"max=5000" mod:"trim"`
	Quantity        *int   `json:"quantity" validate:"required,min=0"`
	CoverImage      string `json:"cover_image" validate:"max=500" mod:"trim"`
}

type UpdateBookPayload struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,max=300" mod:"trim"`
	Author          *string `json:"author,omitempty" validate:"omitempty,max=200" mod:"trim"`
	ISBN            *string `json:"isbn,omitempty" validate:"omitempty,book_isbn" mod:"trim"`
	Genre           *string `json:"genre,omitempty" validate:"omitempty,max=100" mod:"trim"`
	PublicationYear *int    `json:"publication_year,omitempty" validate:"omitempty,min=0,max=9999"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=5000" mod:"trim"`
	Quantity        *int    `json:"quantity,omitempty" validate:"omitempty,min=0"`
	CoverImage      *string `json:"cover_image,omitempty" validate:"omitempty,max=500" mod:"trim"`
}

type ListBooksResponse struct {
	Books []*models.Book `json:"books"`
	Total int            `json:"total"`
}
