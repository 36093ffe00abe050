package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError is returned once a URL cannot be retrieved: after a 404, or after the retry
// budget is spent.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a FetchError for an HTTP 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// statusError carries the HTTP status of a failed attempt through the retry loop.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("status %d: %v", e.code, e.err)
	}
	return fmt.Sprintf("status %d", e.code)
}

func (e *statusError) Unwrap() error {
	return e.err
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
