// Package totp implements RFC 6238 time-based one-time passwords and the
// recovery code primitives that back them up.
//
// Code derivation and constant-time comparison are delegated to
// github.com/pquerna/otp. This package adds parameter validation, input
// normalization (full-width digits typed on mobile keyboards are folded to
// ASCII) and an injectable clock so callers can verify codes deterministically.
//
// # Secrets and URIs
//
//	secret, err := totp.GenerateSecret() // 160-bit, Base32 without padding
//	uri, err := totp.URI(totp.URIParams{
//	    Secret:      secret,
//	    AccountName: "user@example.com",
//	    Issuer:      "MFAKit",
//	    Params:      totp.DefaultParams(),
//	})
//
// # Verification
//
//	engine := totp.NewEngine()
//	ok, err := engine.Verify(secret, "123456", params, totp.DefaultWindow)
//
// Verify accepts codes from the current step and window steps either side of it.
// A malformed code is reported as a mismatch; only a malformed secret or
// unsupported parameters produce an error.
//
// # Recovery Codes
//
// GenerateRecoveryCodes returns codes in the form XXXXX-XXXXX drawn from an
// alphabet without the ambiguous characters 0, O, 1 and I. Only the output of
// HashRecoveryCode should be stored. Hashing normalizes the input first, so
// users may type codes in lower case, with or without the hyphen.
package totp
