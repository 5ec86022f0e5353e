// Package apierr carries the registry failure taxonomy: every failure the
// pipeline can surface maps to one status and one human-readable message.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

// AlreadyExists covers content, URL, and name collisions.
func AlreadyExists() *Error {
	return New(http.StatusConflict, "Package exists already.", nil)
}

func InvalidContent(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

func InvalidContentOrURL() *Error {
	return New(http.StatusBadRequest, "Invalid Content or URL", nil)
}

func DisqualifiedRating() *Error {
	return New(http.StatusLocked, "Package is not uploaded due to the disqualified rating.", nil)
}

func NotFound() *Error {
	return New(http.StatusNotFound, "Package does not exist.", nil)
}

func Storage(err error) *Error {
	return New(http.StatusInternalServerError, "Storage failure", err)
}

func InvalidToken() *Error {
	return New(http.StatusBadRequest, "Invalid Token", nil)
}

// StatusOf resolves any error to a response status and message. Errors
// outside the taxonomy are reported as opaque internal failures.
func StatusOf(err error) (int, string) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Message
	}
	return http.StatusInternalServerError, "unexpected error"
}
