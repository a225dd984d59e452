// Package errors defines the error taxonomy shared across docrank: sentinel
// errors for lookup, query, tokenization, and storage outcomes, plus an
// AppError wrapper carrying an HTTP status for the service edges.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoMatch is the normal outcome of a query whose term set is empty
	// or whose candidate intersection is empty. It is not a failure.
	ErrNoMatch = errors.New("no matching document")

	// ErrDocumentNotFound is returned when a document id is absent from
	// the collection.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrTokenization indicates the tokenizer could not process its input.
	ErrTokenization = errors.New("tokenization failed")

	// ErrStorage indicates an I/O failure in the postings store or the
	// document collection. The core propagates it without retrying.
	ErrStorage = errors.New("storage failure")

	ErrInvalidInput = errors.New("invalid input")
	ErrTimeout      = errors.New("operation timed out")
	ErrInternal     = errors.New("internal error")
)

// AppError pairs a sentinel error with a message and an HTTP status code for
// the service boundary.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError wrapping the given sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf creates an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the services should return.
// ErrNoMatch intentionally maps to 200: an empty result is a valid answer.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNoMatch):
		return http.StatusOK
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTokenization):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
