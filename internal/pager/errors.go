package pager

import (
	"errors"
	"fmt"
)

// errRangeUnsupported marks a server that answered a ranged request with a
// full 200 body. It triggers the one-time whole-file fallback and is never
// surfaced past the pager.
var errRangeUnsupported = errors.New("server does not honor byte-range requests")

// FetchError represents a transport failure that survived the pager's retry
// budget. It corresponds to the user-facing "data unavailable" condition.
type FetchError struct {
	// URL is the remote database file.
	URL string

	// Offset and Length identify the failed byte range. Length 0 means the
	// failure happened before a range was chosen (e.g. sizing the file).
	Offset int64
	Length int64

	// Attempts is how many fetches were tried before giving up.
	Attempts int

	// Err is the last underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Length > 0 {
		return fmt.Sprintf("fetch %s bytes [%d,%d): %v (after %d attempts)",
			e.URL, e.Offset, e.Offset+e.Length, e.Err, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v (after %d attempts)", e.URL, e.Err, e.Attempts)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError returns true if the error is a FetchError.
// Uses errors.As to handle wrapped errors.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// statusError is a non-2xx response. Retryable reports whether another
// attempt can reasonably succeed.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

func (e *statusError) retryable() bool {
	return e.status >= 500 || e.status == 429
}
