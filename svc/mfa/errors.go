package mfa

import "errors"

var (
	ErrValidation          = errors.New("invalid request")
	ErrUnauthorized        = errors.New("authentication required")
	ErrAlreadyEnrolled     = errors.New("two-factor authentication is already enrolled")
	ErrNotEnrolled         = errors.New("two-factor authentication is not enabled")
	ErrInvalidChallenge    = errors.New("invalid or expired setup challenge")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	ErrRateLimited         = errors.New("too many failed attempts, try again later")
	ErrCodeRequired        = errors.New("verification code is required")
	ErrConfiguration       = errors.New("two-factor authentication is not configured")
	ErrTransient           = errors.New("temporary failure, try again")

	// ErrNotFound is returned by storage implementations when a row does not exist.
	// It never leaves the service.
	ErrNotFound = errors.New("not found")
)

// Error kinds returned by Kind.
const (
	KindValidation          = "validation"
	KindUnauthorized        = "unauthorized"
	KindAlreadyEnrolled     = "already_enrolled"
	KindNotEnrolled         = "not_enrolled"
	KindInvalidChallenge    = "invalid_challenge"
	KindInvalidCode         = "invalid_code"
	KindInvalidRecoveryCode = "invalid_recovery_code"
	KindRateLimited         = "rate_limited"
	KindCodeRequired        = "code_required"
	KindConfiguration       = "configuration_error"
	KindTransient           = "transient_error"
	KindInternal            = "internal_error"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrValidation, KindValidation},
	{ErrUnauthorized, KindUnauthorized},
	{ErrAlreadyEnrolled, KindAlreadyEnrolled},
	{ErrNotEnrolled, KindNotEnrolled},
	{ErrInvalidChallenge, KindInvalidChallenge},
	{ErrInvalidCode, KindInvalidCode},
	{ErrInvalidRecoveryCode, KindInvalidRecoveryCode},
	{ErrRateLimited, KindRateLimited},
	{ErrCodeRequired, KindCodeRequired},
	{ErrConfiguration, KindConfiguration},
	{ErrTransient, KindTransient},
}

// Kind returns the stable machine-readable name of err.
// Errors that are not service sentinels report KindInternal; nil reports "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Sentinel returns the service sentinel wrapped by err, or nil.
func Sentinel(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err
		}
	}
	return nil
}
