package mfa

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileStorage reads the profile collaborator. A missing profile is reported
// as a zero State and a Profile with the default role, not as an error.
type ProfileStorage interface {
	GetMFAState(ctx context.Context, userID uuid.UUID) (State, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// EnrollmentStorage persists enrollments. Create, Activate and Delete each run
// in a single transaction together with the profile flags they change.
type EnrollmentStorage interface {
	// GetEnrollment returns ErrNotFound when the user has no enrollment.
	GetEnrollment(ctx context.Context, userID uuid.UUID) (Enrollment, error)
	// CreateEnrollment inserts e and c and marks the profile enabled but unverified.
	// It returns ErrAlreadyEnrolled if the user already has an enrollment.
	CreateEnrollment(ctx context.Context, e Enrollment, c Challenge) error
	// ActivateEnrollment consumes the setup challenge, inserts codes and marks the
	// profile enabled and verified, all or nothing. It returns false and changes
	// nothing when the challenge is not usable by userID at at.
	ActivateEnrollment(ctx context.Context, userID uuid.UUID, challengeID string, codes []RecoveryCode, at time.Time) (bool, error)
	TouchEnrollment(ctx context.Context, userID uuid.UUID, at time.Time) error
	// DeleteEnrollment removes the enrollment and all recovery codes and clears the
	// profile flags. It returns ErrNotFound when there is nothing to delete.
	DeleteEnrollment(ctx context.Context, userID uuid.UUID) error
}

// RecoveryCodeStorage persists recovery code hashes.
type RecoveryCodeStorage interface {
	// ConsumeRecoveryCode flips used=false to true for the matching row.
	// Exactly one concurrent caller gets true.
	ConsumeRecoveryCode(ctx context.Context, userID uuid.UUID, codeHash string, at time.Time) (bool, error)
	// ReplaceRecoveryCodes deletes all codes of the user and inserts codes atomically.
	// It returns ErrNotFound when the user has no enrollment.
	ReplaceRecoveryCodes(ctx context.Context, userID uuid.UUID, codes []RecoveryCode) error
	CountUnusedRecoveryCodes(ctx context.Context, userID uuid.UUID) (int, error)
}

// ChallengeStorage persists setup challenges.
type ChallengeStorage interface {
	CreateChallenge(ctx context.Context, c Challenge) error
	// GetChallenge returns ErrNotFound for unknown ids.
	GetChallenge(ctx context.Context, id string) (Challenge, error)
	// VerifyChallenge marks the challenge verified if it belongs to userID,
	// is unverified and expires after at. Exactly one concurrent caller gets true.
	VerifyChallenge(ctx context.Context, id string, userID uuid.UUID, at time.Time) (bool, error)
	// DeleteExpiredChallenges removes unverified challenges that expired before at.
	DeleteExpiredChallenges(ctx context.Context, at time.Time) (int64, error)
}

// AttemptStorage is the append-only attempt ledger backend.
type AttemptStorage interface {
	LogAttempt(ctx context.Context, a Attempt) error
	// CountFailures counts failed attempts since the given time, separately
	// for the user and for the ip. An empty ip reports zero for IP.
	CountFailures(ctx context.Context, userID uuid.UUID, ip string, since time.Time) (FailureCounts, error)
}

// Storage is the full persistence surface of the service.
type Storage interface {
	ProfileStorage
	EnrollmentStorage
	RecoveryCodeStorage
	ChallengeStorage
}

// SecretCipher encrypts TOTP secrets at rest.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// QRRenderer renders provisioning URIs as image data URIs.
type QRRenderer interface {
	DataURI(content string) (string, error)
}

// TokenVerifier resolves a bearer token to the authenticated user id.
type TokenVerifier interface {
	VerifyBearerToken(ctx context.Context, token string) (uuid.UUID, error)
}
