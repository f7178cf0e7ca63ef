package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

// StatusError is returned when the completion service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d: %s", e.StatusCode, e.Body)
}

// categorize wraps err as transient or permanent.
// Rate limiting, 5xx responses, timeouts and network errors are transient.
func categorize(err error) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500 {
			return domainerrors.NewTransientError("completion service unavailable", err)
		}
		return domainerrors.NewPermanentError("completion request rejected", err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError("completion request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError("completion network error", err)
	}

	return domainerrors.NewPermanentError("completion request failed", err)
}
