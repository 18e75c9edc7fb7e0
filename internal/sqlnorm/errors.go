package sqlnorm

import "errors"

// InvalidQueryError indicates the filter-state-to-SQL translation produced an
// inconsistent placeholder set. This is a programmer error: it is never
// retried and must propagate immediately.
type InvalidQueryError struct {
	// Placeholder is the first placeholder with no matching named parameter,
	// if that was the failure.
	Placeholder string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *InvalidQueryError) Error() string {
	if e.Placeholder != "" {
		return "invalid query: " + e.Message + " (placeholder=:" + e.Placeholder + ")"
	}
	return "invalid query: " + e.Message
}

// IsInvalidQuery returns true if the error is an InvalidQueryError.
// Uses errors.As to handle wrapped errors.
func IsInvalidQuery(err error) bool {
	var ie *InvalidQueryError
	return errors.As(err, &ie)
}
