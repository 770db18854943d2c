package directory

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound is returned when the directory has no candidate with the requested id.
	ErrNotFound = errors.New("candidate not found")
	// ErrUnavailable is returned when the directory cannot be reached after retries.
	ErrUnavailable = errors.New("directory unavailable")
)

// StatusError is a non-successful response from the directory.
type StatusError struct {
	Code   int
	Status string

	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}
