package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSuccessFlag marks a response without the mandatory isError
	// indicator. The marketplace intermittently omits it; such responses are
	// failed calls regardless of the transport status.
	ErrMissingSuccessFlag = errors.New("response is missing the isError indicator")

	ErrRateLimited = errors.New("request rejected by marketplace rate limit")
)

// ValidationError is a local or remote payload rejection. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// AuthError is an authentication failure on one account. Never retried; it
// fails the whole sync job for that account.
type AuthError struct {
	Account string
	Status  int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for account %s (status %d)", e.Account, e.Status)
}

// TransientError wraps timeouts, connection failures, 5xx responses and
// garbled envelopes. Retried with backoff until the attempt budget runs out.
type TransientError struct {
	Cause  error
	Status int
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient marketplace error (status %d): %v", e.Status, e.Cause)
	}
	return fmt.Sprintf("transient marketplace error: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// IsRetryable reports whether the retry policy may re-attempt the call.
func IsRetryable(err error) bool {
	var validation *ValidationError
	var auth *AuthError
	if errors.As(err, &validation) || errors.As(err, &auth) {
		return false
	}
	var transient *TransientError
	return errors.As(err, &transient) || errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrMissingSuccessFlag)
}
