// Package errors classifies failures of external systems as transient or permanent.
package errors

import "errors"

// TransientError is a failure that may succeed if attempted again later
// (network errors, rate limiting, upstream 5xx, timeouts).
type TransientError struct {
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError is a failure that will not go away on its own
// (bad credentials, unknown channel, malformed response).
type PermanentError struct {
	Message string
	Err     error
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a transient failure.
func NewTransientError(message string, err error) error {
	return &TransientError{Message: message, Err: err}
}

// NewPermanentError wraps err as a permanent failure.
func NewPermanentError(message string, err error) error {
	return &PermanentError{Message: message, Err: err}
}

// IsTransientError reports whether any error in err's chain is a TransientError.
func IsTransientError(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanentError reports whether any error in err's chain is a PermanentError.
func IsPermanentError(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
