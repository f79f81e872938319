package jwt_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/jwt"
)

func newService(t *testing.T, opts ...jwt.Option) *jwt.Service {
	t.Helper()
	svc, err := jwt.New(jwt.Config{SigningKey: "test-secret", Issuer: "test-issuer", TTL: time.Hour}, opts...)
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(jwt.Config{})
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.New(jwt.Config{SigningKey: "key"})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()
	svc := newService(t)
	userID := uuid.New()

	token, err := svc.Issue(userID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.VerifyBearerToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyBearerTokenFailures(t *testing.T) {
	t.Parallel()
	now := time.Now()
	svc := newService(t)
	past := newService(t, jwt.WithClock(func() time.Time { return now.Add(-2 * time.Hour) }))

	otherKey, err := jwt.New(jwt.Config{SigningKey: "other-secret", Issuer: "test-issuer"})
	require.NoError(t, err)
	otherIssuer, err := jwt.New(jwt.Config{SigningKey: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)

	expired, err := past.Issue(uuid.New(), time.Minute)
	require.NoError(t, err)
	wrongKey, err := otherKey.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	noneToken, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "test-issuer",
		ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		Issuer:    "test-issuer",
		ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", jwt.ErrMissingToken},
		{"garbage", "not.a.token", jwt.ErrInvalidToken},
		{"expired", expired, jwt.ErrExpiredToken},
		{"wrong key", wrongKey, jwt.ErrInvalidToken},
		{"wrong issuer", wrongIssuer, jwt.ErrInvalidToken},
		{"alg none", noneToken, jwt.ErrInvalidToken},
		{"subject not uuid", badSubject, jwt.ErrInvalidSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uid, err := svc.VerifyBearerToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, uuid.Nil, uid)
		})
	}
}

func TestBearerTokenExtractor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"lower case scheme", "bearer abc", "abc", nil},
		{"missing header", "", "", jwt.ErrMissingToken},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", jwt.ErrInvalidToken},
		{"no token", "Bearer ", "", jwt.ErrMissingToken},
		{"no separator", "Bearer", "", jwt.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := jwt.BearerTokenExtractor(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
