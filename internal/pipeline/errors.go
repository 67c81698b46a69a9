package pipeline

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
)

// AuthError means the endpoint rejected our credentials. It is never retried;
// waiting does not make a bad key good.
type AuthError struct {
	Endpoint string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected by %s (check the API key)", e.Endpoint)
}

// RetryExhaustedError is returned when every transient-retry attempt failed.
type RetryExhaustedError struct {
	Attempts int
	MaxRetry int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("exceeded max retries (%d/%d): %v", e.Attempts, e.MaxRetry, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastErr }

// statusError carries a non-200 HTTP response through the retry loop.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, e.body)
}

// transient reports whether err is worth retrying: any unexpected HTTP
// status, timeouts and connection errors. The one status that is never
// retried is 401, and that never gets here; it is carried as AuthError.
func transient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	return false
}
