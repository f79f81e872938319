package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the registered claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens. It is safe for concurrent use.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service from cfg.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		leeway:     cfg.Leeway,
		now:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = 15 * time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for userID. A non-positive ttl uses the configured TTL.
func (s *Service) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Parse verifies tokenString and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return s.signingKey, nil
	}, parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.Join(ErrInvalidToken, ErrExpiredToken)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, errors.Join(ErrInvalidToken, ErrUnexpectedSigningMethod)
		default:
			return nil, errors.Join(ErrInvalidToken, err)
		}
	}

	return claims, nil
}

// VerifyBearerToken returns the user id carried by a valid token.
func (s *Service) VerifyBearerToken(_ context.Context, token string) (uuid.UUID, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, errors.Join(ErrInvalidToken, ErrInvalidSubject)
	}
	return userID, nil
}
