package domain

import "errors"

// Error codes surfaced to callers.
const (
	CodeFailed       = "failed"
	CodeNotAvailable = "not_available"
)

// ErrNotAvailable means the geocoding backend is not present.
var ErrNotAvailable = errors.New("geocoder backend not available")

// LookupError wraps a backend failure. Its message is the backend's own.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string { return e.Err.Error() }

func (e *LookupError) Unwrap() error { return e.Err }

// ErrorCode maps an error returned by Lookup to its wire code.
func ErrorCode(err error) string {
	if errors.Is(err, ErrNotAvailable) {
		return CodeNotAvailable
	}
	return CodeFailed
}
