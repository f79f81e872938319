package mfa_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/modules/mfa"
	"github.com/dmitrymomot/mfakit/pkg/jwt"
	"github.com/dmitrymomot/mfakit/pkg/secrets"
	"github.com/dmitrymomot/mfakit/pkg/totp"
	mfasvc "github.com/dmitrymomot/mfakit/svc/mfa"
	"github.com/dmitrymomot/mfakit/svc/mfa/memstore"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Enroll(ctx context.Context, userID uuid.UUID) (mfasvc.EnrollResult, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(mfasvc.EnrollResult), args.Error(1)
}

func (m *mockService) VerifySetup(ctx context.Context, in mfasvc.VerifySetupInput) (mfasvc.VerifySetupResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(mfasvc.VerifySetupResult), args.Error(1)
}

func (m *mockService) Authenticate(ctx context.Context, in mfasvc.AuthInput) (mfasvc.AuthResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(mfasvc.AuthResult), args.Error(1)
}

func (m *mockService) ValidateRecovery(ctx context.Context, in mfasvc.RecoveryInput) (mfasvc.RecoveryResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(mfasvc.RecoveryResult), args.Error(1)
}

func (m *mockService) Disable(ctx context.Context, in mfasvc.DisableInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *mockService) Status(ctx context.Context, userID uuid.UUID) (mfasvc.StatusResult, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(mfasvc.StatusResult), args.Error(1)
}

func (m *mockService) RegenerateRecoveryCodes(ctx context.Context, in mfasvc.RegenerateInput) (mfasvc.RegenerateResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(mfasvc.RegenerateResult), args.Error(1)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newJWT(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.New(jwt.Config{SigningKey: "test-signing-key", Issuer: "mfakit"})
	require.NoError(t, err)
	return svc
}

func bearer(t *testing.T, tokens *jwt.Service, userID uuid.UUID) string {
	t.Helper()
	token, err := tokens.Issue(userID, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method, path, auth string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{mfasvc.ErrValidation, http.StatusBadRequest},
		{mfasvc.ErrUnauthorized, http.StatusUnauthorized},
		{mfasvc.ErrCodeRequired, http.StatusForbidden},
		{mfasvc.ErrAlreadyEnrolled, http.StatusConflict},
		{mfasvc.ErrNotEnrolled, http.StatusNotFound},
		{mfasvc.ErrInvalidChallenge, http.StatusUnauthorized},
		{mfasvc.ErrInvalidCode, http.StatusUnauthorized},
		{mfasvc.ErrInvalidRecoveryCode, http.StatusUnauthorized},
		{mfasvc.ErrRateLimited, http.StatusTooManyRequests},
		{mfasvc.ErrConfiguration, http.StatusInternalServerError},
		{mfasvc.ErrTransient, http.StatusServiceUnavailable},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(mfasvc.Kind(tt.err), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mfa.StatusCode(tt.err))
		})
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	t.Parallel()
	tokens := newJWT(t)
	userID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", mfasvc.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"invalid code", mfasvc.ErrInvalidCode, http.StatusUnauthorized, "invalid_code"},
		{"not enrolled", mfasvc.ErrNotEnrolled, http.StatusNotFound, "not_enrolled"},
		{"transient", mfasvc.ErrTransient, http.StatusServiceUnavailable, "transient_error"},
		{"raw error is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockService{}
			svc.On("RegenerateRecoveryCodes", mock.Anything, mock.MatchedBy(func(in mfasvc.RegenerateInput) bool {
				return in.UserID == userID && in.Code == "123456" && in.IP == "203.0.113.50"
			})).Return(mfasvc.RegenerateResult{}, tt.err)

			h := mfa.NewHandler(svc, tokens).Handle()
			rec, env := do(t, h, http.MethodPost, "/recovery-codes/regenerate", bearer(t, tokens, userID), mfa.CodeRequest{Code: "123456"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
			svc.AssertExpectations(t)
		})
	}
}

func TestHandlerBearerRequired(t *testing.T) {
	t.Parallel()
	tokens := newJWT(t)
	other, err := jwt.New(jwt.Config{SigningKey: "another-key"})
	require.NoError(t, err)
	h := mfa.NewHandler(&mockService{}, tokens).Handle()

	for name, auth := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"garbage":      "Bearer not-a-token",
		"foreign key":  bearer(t, other, uuid.New()),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec, env := do(t, h, http.MethodGet, "/status", auth, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "unauthorized", env.Error.Code)
		})
	}
}

func TestHandlerValidation(t *testing.T) {
	t.Parallel()
	tokens := newJWT(t)
	h := mfa.NewHandler(&mockService{}, tokens).Handle()

	t.Run("bad user id", func(t *testing.T) {
		t.Parallel()
		rec, env := do(t, h, http.MethodPost, "/authenticate", "", map[string]string{"user_id": "nope", "code": "123456"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "validation", env.Error.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		rec, env := do(t, h, http.MethodPost, "/authenticate", "", map[string]string{"user_id": uuid.NewString(), "otp": "1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "validation", env.Error.Code)
	})
}

func TestHandlerDisableWithoutBody(t *testing.T) {
	t.Parallel()
	tokens := newJWT(t)
	userID := uuid.New()
	svc := &mockService{}
	svc.On("Disable", mock.Anything, mock.MatchedBy(func(in mfasvc.DisableInput) bool {
		return in.UserID == userID && in.Code == ""
	})).Return(mfasvc.ErrCodeRequired)

	rec, env := do(t, mfa.NewHandler(svc, tokens).Handle(), http.MethodPost, "/disable", bearer(t, tokens, userID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "code_required", env.Error.Code)
	svc.AssertExpectations(t)
}

func TestHandlerFlow(t *testing.T) {
	t.Parallel()

	cipher, err := secrets.NewCipher(secrets.Config{MasterKey: "http-test-key", Iterations: secrets.MinIterations})
	require.NoError(t, err)
	store := memstore.New()
	svc, err := mfasvc.New(mfasvc.DefaultConfig(), store, store, cipher)
	require.NoError(t, err)

	tokens := newJWT(t)
	h := mfa.NewHandler(svc, tokens).Handle()
	userID := uuid.New()
	auth := bearer(t, tokens, userID)
	engine := totp.NewEngine()

	rec, env := do(t, h, http.MethodPost, "/enroll", auth, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var enrolled mfa.EnrollResponse
	require.NoError(t, json.Unmarshal(env.Data, &enrolled))
	require.NotEmpty(t, enrolled.Secret)

	rec, _ = do(t, h, http.MethodPost, "/enroll", auth, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	code, err := engine.GenerateCode(enrolled.Secret, totp.DefaultParams(), time.Now())
	require.NoError(t, err)
	rec, env = do(t, h, http.MethodPost, "/verify-setup", auth, mfa.VerifySetupRequest{Code: code, ChallengeID: enrolled.ChallengeID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var codes mfa.RecoveryCodesResponse
	require.NoError(t, json.Unmarshal(env.Data, &codes))
	require.Len(t, codes.RecoveryCodes, totp.DefaultRecoveryCodeCount)

	rec, env = do(t, h, http.MethodPost, "/authenticate", "", mfa.LoginCodeRequest{UserID: userID.String(), Code: code, SessionID: "s1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var authRes mfa.AuthenticateResponse
	require.NoError(t, json.Unmarshal(env.Data, &authRes))
	assert.Equal(t, mfa.AuthenticateResponse{Success: true, SessionID: "s1"}, authRes)

	rec, env = do(t, h, http.MethodPost, "/validate-recovery", "", mfa.LoginCodeRequest{UserID: userID.String(), Code: codes.RecoveryCodes[0]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var recRes mfa.RecoveryResponse
	require.NoError(t, json.Unmarshal(env.Data, &recRes))
	assert.Equal(t, totp.DefaultRecoveryCodeCount-1, recRes.Remaining)

	rec, env = do(t, h, http.MethodGet, "/status", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status mfa.StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Enabled)
	assert.True(t, status.Verified)
	assert.NotNil(t, status.EnrollmentTime)
	assert.Equal(t, totp.DefaultRecoveryCodeCount-1, status.RecoveryCodesRemaining)

	rec, _ = do(t, h, http.MethodPost, "/disable", auth, mfa.DisableRequest{Code: code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, h, http.MethodGet, "/status", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.Enabled)

	attempts := store.Attempts()
	require.NotEmpty(t, attempts)
	assert.Equal(t, "203.0.113.50", attempts[0].IP)
}
