package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Unauthorized returns a 401 error for a missing or invalid identity.
func Unauthorized(msg string) error {
	return &Error{
		http.StatusUnauthorized,
		msg,
		"unauthorized",
	}
}

// Conflict returns a 400 error for a transition that the current state of a
// record doesn't allow, e.g. returning an already returned book.
func Conflict(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		"conflict",
	}
}

// NoCopiesAvailable returns a 400 error when a book has no copy left to lend.
func NoCopiesAvailable() error {
	return &Error{
		http.StatusBadRequest,
		"No copies available for borrowing",
		"no_copies_available",
	}
}

// DataCorruption returns a 500 error for a stored record that violates its
// own invariants, e.g. a book with more available copies than it owns.
func DataCorruption(resource string) error {
	return &Error{
		http.StatusInternalServerError,
		resource + " data is corrupted",
		"data_corruption",
	}
}

// InvalidResetToken returns a 400 error for an unknown or expired password
// reset token.
func InvalidResetToken() error {
	return &Error{
		http.StatusBadRequest,
		"Invalid or expired reset token",
		"invalid_reset_token",
	}
}

// Forbidden returns a 403 error with the given message.
func Forbidden(msg string) error {
	return &Error{
		http.StatusForbidden,
		msg,
		"forbidden",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found",
		"not_found",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}
