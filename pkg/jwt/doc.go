// Package jwt issues and verifies the bearer tokens that authenticate callers of
// the session-gated MFA endpoints.
//
// Tokens are HS256-signed with github.com/golang-jwt/jwt/v5. The subject claim
// carries the user id as a UUID. Verification pins the signing method, checks
// expiry and not-before, and, when configured, the issuer.
//
// # Usage
//
//	svc, err := jwt.New(jwt.Config{SigningKey: "...", Issuer: "mfakit"})
//	if err != nil {
//	    return err
//	}
//
//	token, err := svc.Issue(userID, time.Hour)
//	uid, err := svc.VerifyBearerToken(ctx, token)
//
// BearerTokenExtractor reads the token from an "Authorization: Bearer <token>"
// header per RFC 6750.
//
// # Error Handling
//
// Verification failures wrap ErrInvalidToken, with ErrExpiredToken or
// ErrUnexpectedSigningMethod joined where the cause is known. Use errors.Is.
package jwt
