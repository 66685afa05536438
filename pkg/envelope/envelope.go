// Package envelope shapes every API response as
// {"success": bool, "message": string, "data": ...}.
package envelope

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the body of every JSON response. Error responses are built by
// the errcodes handler and additionally carry an Error.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo is the machine-readable part of a failed response.
type ErrorInfo struct {
	Code       string `json:"code"`
	StatusCode int    `json:"status_code"`
}

// JSON writes a successful envelope.
func JSON(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Message writes a successful envelope without data.
func Message(c echo.Context, status int, message string) error {
	return JSON(c, status, message, nil)
}

// Failure builds the envelope for an error response.
func Failure(status int, code, message string) Envelope {
	return Envelope{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:       code,
			StatusCode: status,
		},
	}
}
