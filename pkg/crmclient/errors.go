package crmclient

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds the client classifies every non-2xx response or
// transport failure into. Callers use errors.Is/errors.As, never string
// matching on error messages.
var (
	// ErrNotFound is a 404 from the CRM.
	ErrNotFound = errors.New("crm: not found")
	// ErrAuthFailed is a 401/403 from the CRM. Never retried.
	ErrAuthFailed = errors.New("crm: authentication failed")
	// ErrPermanent is any other non-retryable 4xx.
	ErrPermanent = errors.New("crm: permanent error")
	// ErrUnavailable is returned once the retry budget for a transient or
	// rate-limited error is exhausted.
	ErrUnavailable = errors.New("crm: unavailable after retries")
)

// RateLimitedError is a 429 response, possibly carrying a server-specified
// Retry-After. The client retries it internally; it only escapes to the
// caller as ErrUnavailable once the retry budget is exhausted.
type RateLimitedError struct {
	RetryAfter time.Duration // zero if the CRM did not send Retry-After
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("crm: rate limited (retry after %s)", e.RetryAfter)
}

// TransientError wraps a transport-level or 5xx failure that is retried
// internally per the client's backoff policy.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("crm: transient error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("crm: transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// classifyStatus maps an HTTP status code to the retry-relevant error it
// represents, and whether that error is retryable. A plain success (2xx)
// yields (nil, false).
func classifyStatus(status int) (err error, retryable bool) {
	switch {
	case status >= 200 && status < 300:
		return nil, false
	case status == 404:
		return ErrNotFound, false
	case status == 401 || status == 403:
		return ErrAuthFailed, false
	case status == 429:
		return &RateLimitedError{}, true
	case status >= 500:
		return &TransientError{Status: status}, true
	default:
		return ErrPermanent, false
	}
}
