package executor

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes executor errors.
type ErrorCode string

const (
	// ErrCodeNonSelect indicates a statement other than SELECT was submitted.
	ErrCodeNonSelect ErrorCode = "NON_SELECT"

	// ErrCodeQueryFailed indicates the embedded engine rejected the SQL or
	// hit an internal limit.
	ErrCodeQueryFailed ErrorCode = "QUERY_FAILED"

	// ErrCodeScanFailed indicates a row could not be read from the engine.
	ErrCodeScanFailed ErrorCode = "SCAN_FAILED"
)

// EngineError represents a failure inside the embedded engine. It indicates
// either a bug in query construction or a corrupted remote file: never
// retried, never cached, propagated immediately.
type EngineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying driver error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsEngineError returns true if the error is an EngineError.
// Uses errors.As to handle wrapped errors.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
