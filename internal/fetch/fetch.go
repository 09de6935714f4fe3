package fetch

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher retrieves the text of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Error is returned when a page could not be fetched.
type Error struct {
	// URL is the page that failed.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is the cause of an Error when the server answered with a
// non-2xx status code.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
