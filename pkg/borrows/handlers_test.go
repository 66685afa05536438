package borrows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/binder"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/shelfwise/shelfwise/pkg/envelope"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	envelope.Envelope
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	*fixture
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	f := newFixture(t, newTestDB(t))

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	api := e.Group("/api")
	authService, authMiddleware := auth.RegisterRoutes(api, f.db, f.cfg)
	bookService := books.RegisterRoutes(api, f.db, f.cfg, authMiddleware)
	f.authService = authService
	f.books = bookService
	f.svc = RegisterRoutes(api, f.db, f.cfg, bookService, authMiddleware)

	return &testServer{fixture: f, e: e}
}

func (ts *testServer) login(t *testing.T, role string) (*models.User, *http.Cookie) {
	t.Helper()
	user := ts.createUser(context.Background(), t, role)
	token, err := ts.authService.GenerateToken(user)
	require.NoError(t, err)
	return user, &http.Cookie{Name: auth.CookieName, Value: token}
}

func (ts *testServer) do(t *testing.T, method, path, payload string, cookie *http.Cookie) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var req *http.Request
	if payload == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	ts.e.ServeHTTP(rr, req)

	resp := response{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

func decodeBorrow(t *testing.T, resp response) BorrowResponse {
	t.Helper()
	borrow := BorrowResponse{}
	require.NoError(t, json.Unmarshal(resp.Data, &borrow))
	require.NotNil(t, borrow.Borrow)
	return borrow
}

func TestHandler_RequiresAuthentication(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rr, resp := ts.do(t, http.MethodPost, "/api/borrow/request", `{"book_id":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Authentication token is missing", resp.Message)

	rr, _ = ts.do(t, http.MethodGet, "/api/borrow/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_BorrowerFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)

	book := ts.createBook(ctx, t, isbnDune, 1)
	borrower, cookie := ts.login(t, models.RoleBorrower)

	rr, resp := ts.do(t, http.MethodPost, "/api/borrow", fmt.Sprintf(`{"book_id":%d}`, book.ID), cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "Book borrowed successfully", resp.Message)
	borrow := decodeBorrow(t, resp)
	assert.Equal(t, models.BorrowStatusBorrowed, borrow.Status)
	require.NotNil(t, borrow.User)
	assert.Equal(t, borrower.Email, borrow.User.Email)
	require.NotNil(t, borrow.Book)
	assert.Equal(t, book.ISBN, borrow.Book.ISBN)

	rr, resp = ts.do(t, http.MethodPost, "/api/borrow", fmt.Sprintf(`{"book_id":%d}`, book.ID), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No copies available for borrowing", resp.Message)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "no_copies_available", resp.Error.Code)

	rr, resp = ts.do(t, http.MethodGet, "/api/borrow/user", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "User borrow records fetched successfully", resp.Message)
	mine := ListBorrowsResponse{}
	require.NoError(t, json.Unmarshal(resp.Data, &mine))
	assert.Len(t, mine.Borrows, 1)
	assert.Equal(t, 1, mine.Total)

	// Borrowers can't see everyone's records.
	rr, _ = ts.do(t, http.MethodGet, "/api/borrow", "", cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, resp = ts.do(t, http.MethodPut, fmt.Sprintf("/api/borrow/return/%d", borrow.ID), "", cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Book returned successfully", resp.Message)
	assert.Equal(t, models.BorrowStatusReturned, decodeBorrow(t, resp).Status)

	rr, resp = ts.do(t, http.MethodPut, fmt.Sprintf("/api/borrow/return/%d", borrow.ID), "", cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Book already returned", resp.Message)

	rr, resp = ts.do(t, http.MethodPut, "/api/borrow/return/999", "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Borrow record not found", resp.Message)
}

func TestHandler_BorrowValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)

	book := ts.createBook(ctx, t, isbnDune, 1)
	_, cookie := ts.login(t, models.RoleBorrower)

	rr, _ := ts.do(t, http.MethodPost, "/api/borrow", `{}`, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = ts.do(t, http.MethodPost, "/api/borrow", fmt.Sprintf(`{"book_id":%d,"due_date":"next week"}`, book.ID), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, resp := ts.do(t, http.MethodPost, "/api/borrow", fmt.Sprintf(`{"book_id":%d,"due_date":"2001-01-01"}`, book.ID), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Due date must be in the future", resp.Message)

	due := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	rr, resp = ts.do(t, http.MethodPost, "/api/borrow", fmt.Sprintf(`{"book_id":%d,"due_date":%q}`, book.ID, due), cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	borrow := decodeBorrow(t, resp)
	require.NotNil(t, borrow.DueDate)
	assert.Equal(t, due, borrow.DueDate.UTC().Format("2006-01-02"))

	rr, resp = ts.do(t, http.MethodPost, "/api/borrow/request", `{"book_id":999}`, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Book not found", resp.Message)
}

func TestHandler_RequestApproval(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)

	book := ts.createBook(ctx, t, isbnDune, 1)
	_, borrowerCookie := ts.login(t, models.RoleBorrower)
	_, librarianCookie := ts.login(t, models.RoleLibrarian)

	rr, resp := ts.do(t, http.MethodPost, "/api/borrow/request", fmt.Sprintf(`{"book_id":%d}`, book.ID), borrowerCookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "Borrow request submitted successfully", resp.Message)
	request := decodeBorrow(t, resp)
	assert.Equal(t, models.BorrowStatusPending, request.Status)

	rr, resp = ts.do(t, http.MethodPost, "/api/borrow/request", fmt.Sprintf(`{"book_id":%d}`, book.ID), borrowerCookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "You already have a pending request for this book", resp.Message)

	approvePath := fmt.Sprintf("/api/borrow/approve/%d", request.ID)

	rr, _ = ts.do(t, http.MethodPut, approvePath, "", borrowerCookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, resp = ts.do(t, http.MethodGet, "/api/borrow/requests", "", librarianCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Borrow requests fetched successfully", resp.Message)

	rr, resp = ts.do(t, http.MethodPut, approvePath, "", librarianCookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Borrow request approved successfully", resp.Message)
	approved := decodeBorrow(t, resp)
	assert.Equal(t, models.BorrowStatusApproved, approved.Status)
	assert.Equal(t, 0, ts.availableCopies(ctx, t, book.ID))

	rr, resp = ts.do(t, http.MethodPut, fmt.Sprintf("/api/borrow/reject/%d", request.ID), "", librarianCookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Request is not pending", resp.Message)

	rr, resp = ts.do(t, http.MethodPut, "/api/borrow/approve/999", "", librarianCookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Borrow request not found", resp.Message)

	rr, resp = ts.do(t, http.MethodGet, "/api/borrow", "", librarianCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Borrow records fetched successfully", resp.Message)
	all := ListBorrowsResponse{}
	require.NoError(t, json.Unmarshal(resp.Data, &all))
	assert.Equal(t, len(all.Borrows), all.Total)

	rr, resp = ts.do(t, http.MethodGet, "/api/borrow?limit=1", "", librarianCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	page := ListBorrowsResponse{}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Len(t, page.Borrows, 1)
	assert.Equal(t, all.Total, page.Total)
}

func TestHandler_ReturnOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)

	book := ts.createBook(ctx, t, isbnDune, 2)
	owner, _ := ts.login(t, models.RoleBorrower)
	_, otherCookie := ts.login(t, models.RoleBorrower)
	_, librarianCookie := ts.login(t, models.RoleLibrarian)

	borrow, err := ts.svc.Create(ctx, CreateOptions{UserID: owner.ID, BookID: book.ID, Initial: models.BorrowStatusBorrowed})
	require.NoError(t, err)
	path := fmt.Sprintf("/api/borrow/return/%d", borrow.ID)

	rr, resp := ts.do(t, http.MethodPut, path, "", otherCookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "You can only return your own books", resp.Message)

	rr, _ = ts.do(t, http.MethodPut, path, "", librarianCookie)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, ts.availableCopies(ctx, t, book.ID))
}

func TestHandler_Reject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := newTestServer(t)

	book := ts.createBook(ctx, t, isbnDune, 1)
	borrower, _ := ts.login(t, models.RoleBorrower)
	_, adminCookie := ts.login(t, models.RoleAdmin)

	request, err := ts.svc.Create(ctx, CreateOptions{UserID: borrower.ID, BookID: book.ID, Initial: models.BorrowStatusPending})
	require.NoError(t, err)

	rr, resp := ts.do(t, http.MethodPut, fmt.Sprintf("/api/borrow/reject/%d", request.ID), "", adminCookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Borrow request rejected successfully", resp.Message)
	rejected := decodeBorrow(t, resp)
	assert.Equal(t, models.BorrowStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectionDate)
	assert.Equal(t, 1, ts.availableCopies(ctx, t, book.ID))
}
