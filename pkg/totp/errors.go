package totp

import "errors"

var (
	ErrFailedToGenerateSecretKey    = errors.New("failed to generate TOTP secret key")
	ErrFailedToGenerateTOTP         = errors.New("failed to generate TOTP")
	ErrMissingSecret                = errors.New("missing secret")
	ErrInvalidSecret                = errors.New("invalid secret")
	ErrMissingAccountName           = errors.New("missing account name")
	ErrMissingIssuer                = errors.New("missing issuer")
	ErrInvalidAlgorithm             = errors.New("unsupported TOTP algorithm")
	ErrInvalidDigits                = errors.New("invalid TOTP digits, must be 6 or 8")
	ErrInvalidPeriod                = errors.New("invalid TOTP period, must be between 15 and 120 seconds")
	ErrInvalidWindow                = errors.New("invalid verification window, must not be negative")
	ErrInvalidRecoveryCodeCount     = errors.New("invalid recovery code count, must be greater than 0")
	ErrFailedToGenerateRecoveryCode = errors.New("failed to generate recovery code")
)
