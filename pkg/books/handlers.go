package books

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfwise/shelfwise/pkg/envelope"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
)

type handler struct {
	bookService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:           params.Title,
		Author:          params.Author,
		ISBN:            params.ISBN,
		Genre:           params.Genre,
		PublicationYear: params.PublicationYear,
		Description:     params.Description,
		Quantity:        *params.Quantity,
		CoverImage:      params.CoverImage,
	}
	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID, "isbn": book.ISBN})

	return envelope.JSON(c, http.StatusCreated, "Book created successfully", book)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Book fetched successfully", book)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:     &params.Limit,
		Offset:    &params.Offset,
		Search:    params.Search,
		Genre:     params.Genre,
		Available: params.Available,
	})
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Books fetched successfully", ListBooksResponse{Books: books, Total: total})
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}

	opts := UpdateBookOptions{Quantity: params.Quantity}

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Author != nil && *params.Author != book.Author {
		book.Author = *params.Author
		opts.Columns = append(opts.Columns, "author")
	}
	if params.ISBN != nil && *params.ISBN != book.ISBN {
		book.ISBN = *params.ISBN
		opts.Columns = append(opts.Columns, "isbn")
	}
	if params.Genre != nil && *params.Genre != book.Genre {
		book.Genre = *params.Genre
		opts.Columns = append(opts.Columns, "genre")
	}
	if params.PublicationYear != nil && *params.PublicationYear != book.PublicationYear {
		book.PublicationYear = *params.PublicationYear
		opts.Columns = append(opts.Columns, "publication_year")
	}
	if params.Description != nil && *params.Description != book.Description {
		book.Description = *params.Description
		opts.Columns = append(opts.Columns, "description")
	}
	if params.CoverImage != nil && *params.CoverImage != book.CoverImage {
		book.CoverImage = *params.CoverImage
		opts.Columns = append(opts.Columns, "cover_image")
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return err
	}

	book, err = h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}

	return envelope.JSON(c, http.StatusOK, "Book updated successfully", book)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": id})

	return envelope.Message(c, http.StatusOK, "Book deleted successfully")
}
