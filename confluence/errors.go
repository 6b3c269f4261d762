package confluence

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.  ErrAuthentication is fatal to a whole run and is never
// retried.  ErrExportUnavailable is an expected condition: the instance can't
// render this page as PDF natively, so callers should fall back to conversion.
var (
	ErrAuthentication    = errors.New("confluence: authentication failed")
	ErrExportUnavailable = errors.New("confluence: native PDF export unavailable")
)

// TransientError marks a failure worth retrying: rate limits, 5xx responses,
// and network-level errors.  RetryAfter carries the server's wait hint when it
// sent one (Retry-After on a 429), zero otherwise.
type TransientError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("confluence: transient failure (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("confluence: transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// retryHint extracts the server wait hint from err, if any.
func retryHint(err error) time.Duration {
	var t *TransientError
	if errors.As(err, &t) {
		return t.RetryAfter
	}
	return 0
}
