package handler

import (
	"errors"
	"net/http"
)

// Package-level errors for common failure scenarios
var (
	// ErrNilResponse indicates a handler returned nil instead of a Response
	ErrNilResponse = errors.New("handler returned nil response")
)

// HTTPError carries a status code and a stable machine-readable key.
// Message is what the client sees; it defaults to the status text.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

// NewHTTPError creates an HTTPError with the given status and key.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

// WithMessage returns a copy with a custom client-facing message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}
