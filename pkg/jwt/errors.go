package jwt

import "errors"

var (
	ErrInvalidToken            = errors.New("jwt: invalid token")
	ErrExpiredToken            = errors.New("jwt: token is expired")
	ErrMissingSigningKey       = errors.New("jwt: missing signing key")
	ErrInvalidSubject          = errors.New("jwt: subject is not a valid user id")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
	ErrMissingToken            = errors.New("jwt: missing bearer token")
)
