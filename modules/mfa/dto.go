package mfa

import (
	"time"

	mfasvc "github.com/dmitrymomot/mfakit/svc/mfa"
)

type VerifySetupRequest struct {
	Code        string `json:"code"`
	ChallengeID string `json:"challenge_id"`
}

type LoginCodeRequest struct {
	UserID    string `json:"user_id"`
	Code      string `json:"code"`
	SessionID string `json:"session_id,omitempty"`
}

type DisableRequest struct {
	Code string `json:"code,omitempty"`
}

type CodeRequest struct {
	Code string `json:"code"`
}

type EnrollResponse struct {
	Secret      string    `json:"secret"`
	URI         string    `json:"uri"`
	QRCode      string    `json:"qr_code,omitempty"`
	ChallengeID string    `json:"challenge_id"`
	Algorithm   string    `json:"algorithm"`
	Digits      int       `json:"digits"`
	Period      int       `json:"period"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newEnrollResponse(r mfasvc.EnrollResult) EnrollResponse {
	return EnrollResponse{
		Secret:      r.Secret,
		URI:         r.URI,
		QRCode:      r.QRCode,
		ChallengeID: r.ChallengeID,
		Algorithm:   string(r.Algorithm),
		Digits:      r.Digits,
		Period:      r.Period,
		ExpiresAt:   r.ExpiresAt,
	}
}

type RecoveryCodesResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

type AuthenticateResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
}

type RecoveryResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Remaining int    `json:"remaining"`
}

type DisableResponse struct {
	Disabled bool `json:"disabled"`
}

type StatusResponse struct {
	Enabled                bool       `json:"mfa_enabled"`
	Verified               bool       `json:"mfa_verified"`
	EnrollmentTime         *time.Time `json:"enrollment_time,omitempty"`
	RecoveryCodesRemaining int        `json:"recovery_codes_remaining"`
}
