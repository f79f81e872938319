package mfa

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/rbac"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// Operation names an MFA operation in the attempt ledger, logs and metrics.
type Operation string

const (
	OpEnroll                  Operation = "enroll"
	OpVerifySetup             Operation = "verify_setup"
	OpAuthenticate            Operation = "authenticate"
	OpValidateRecovery        Operation = "validate_recovery"
	OpDisable                 Operation = "disable"
	OpStatus                  Operation = "status"
	OpRegenerateRecoveryCodes Operation = "regenerate_recovery_codes"
)

// Enrollment is the per-user TOTP registration.
type Enrollment struct {
	UserID          uuid.UUID
	EncryptedSecret string
	DisplayName     string
	Params          totp.Params
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastUsedAt      *time.Time
}

// RecoveryCode is a stored single-use code. Only its hash is persisted.
type RecoveryCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CodeHash  string
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Challenge binds a pending enrollment to the session that started it.
type Challenge struct {
	ID         string
	UserID     uuid.UUID
	Verified   bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
	VerifiedAt *time.Time
}

// Usable reports whether c can still be consumed by userID at now.
func (c Challenge) Usable(userID uuid.UUID, now time.Time) bool {
	return !c.Verified && c.UserID == userID && c.ExpiresAt.After(now)
}

// Attempt is one immutable ledger record.
type Attempt struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	IP        string
	UserAgent string
	Operation Operation
	Success   bool
	CreatedAt time.Time
}

// FailureCounts holds failed attempts within the rate-limit window.
type FailureCounts struct {
	User int
	IP   int
}

// State is the MFA portion of a user profile.
type State struct {
	Enabled        bool
	Verified       bool
	EnrollmentTime *time.Time
}

// Active reports whether the second factor is enforced for the user.
func (s State) Active() bool {
	return s.Enabled && s.Verified
}

// Profile is the subset of the user profile the service reads.
type Profile struct {
	UserID uuid.UUID
	Email  string
	Role   rbac.Role
}

// EnrollResult is returned by Enroll. It carries the plaintext secret exactly once.
type EnrollResult struct {
	Secret      string
	URI         string
	QRCode      string
	ChallengeID string
	Algorithm   totp.Algorithm
	Digits      int
	Period      int
	ExpiresAt   time.Time
}

type VerifySetupInput struct {
	UserID      uuid.UUID
	ChallengeID string
	Code        string
	IP          string
	UserAgent   string
}

type VerifySetupResult struct {
	RecoveryCodes []string
}

type AuthInput struct {
	UserID    uuid.UUID
	Code      string
	SessionID string
	IP        string
	UserAgent string
}

type AuthResult struct {
	Success   bool
	SessionID string
}

type RecoveryInput struct {
	UserID    uuid.UUID
	Code      string
	SessionID string
	IP        string
	UserAgent string
}

type RecoveryResult struct {
	Success   bool
	SessionID string
	Remaining int
}

// DisableInput disables the caller's own second factor.
// An empty Code requires a role granted rbac.ActionDisableWithoutCode.
type DisableInput struct {
	UserID    uuid.UUID
	Code      string
	IP        string
	UserAgent string
}

type StatusResult struct {
	Enabled                bool
	Verified               bool
	EnrollmentTime         *time.Time
	RecoveryCodesRemaining int
}

type RegenerateInput struct {
	UserID    uuid.UUID
	Code      string
	IP        string
	UserAgent string
}

type RegenerateResult struct {
	RecoveryCodes []string
}
