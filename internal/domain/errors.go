package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrUnknownPlatform = errors.New("unknown platform")
)

// ErrorKind classifies upstream platform failures. Sync jobs branch on the
// kind instead of string-matching vendor error payloads.
type ErrorKind int

const (
	// ErrKindServerError is a transient upstream failure (5xx, network)
	ErrKindServerError ErrorKind = iota

	// ErrKindRateLimited means the platform refused the call until its
	// rate-limit window resets
	ErrKindRateLimited

	// ErrKindCredentialExpired means the stored token is no longer valid;
	// retrying is pointless until the user re-links the account
	ErrKindCredentialExpired

	// ErrKindNotFound means the account or content no longer exists upstream
	ErrKindNotFound
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case ErrKindRateLimited:
		return "rate_limited"
	case ErrKindCredentialExpired:
		return "credential_expired"
	case ErrKindNotFound:
		return "not_found"
	default:
		return "server_error"
	}
}

// UpstreamError is a classified failure returned by a platform client
type UpstreamError struct {
	Kind     ErrorKind
	Platform Platform

	// RetryAfter is an optional vendor-provided reset hint; zero means the
	// platform default cooldown applies
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Platform, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Kind)
}

// Unwrap returns the wrapped error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is an upstream rate-limit signal
func IsRateLimited(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == ErrKindRateLimited
}

// IsCredentialExpired reports whether err is an expired-credential signal
func IsCredentialExpired(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == ErrKindCredentialExpired
}

// CooldownFor returns the wait before retrying after a rate limit: the
// vendor's reset hint when present, otherwise the platform default
func CooldownFor(err error) time.Duration {
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Kind != ErrKindRateLimited {
		return 0
	}
	if ue.RetryAfter > 0 {
		return ue.RetryAfter
	}
	return ue.Platform.RateLimitCooldown()
}
