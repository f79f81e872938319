package mfa

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// RecoveryManager issues and consumes single-use recovery codes.
type RecoveryManager struct {
	storage RecoveryCodeStorage
	count   int
	now     func() time.Time
}

// NewRecoveryManager creates a manager issuing count codes per batch.
func NewRecoveryManager(storage RecoveryCodeStorage, count int, now func() time.Time) *RecoveryManager {
	if count <= 0 {
		count = totp.DefaultRecoveryCodeCount
	}
	if now == nil {
		now = time.Now
	}
	return &RecoveryManager{storage: storage, count: count, now: now}
}

// NewBatch generates a batch of plaintext codes and their storage rows.
func (m *RecoveryManager) NewBatch(userID uuid.UUID) ([]string, []RecoveryCode, error) {
	codes, err := totp.GenerateRecoveryCodes(m.count)
	if err != nil {
		return nil, nil, err
	}
	created := m.now().UTC()
	rows := make([]RecoveryCode, len(codes))
	for i, code := range codes {
		rows[i] = RecoveryCode{
			ID:        uuid.New(),
			UserID:    userID,
			CodeHash:  totp.HashRecoveryCode(code),
			CreatedAt: created,
		}
	}
	return codes, rows, nil
}

// Consume marks the matching unused code as used.
func (m *RecoveryManager) Consume(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	if totp.NormalizeRecoveryCode(code) == "" {
		return false, nil
	}
	return m.storage.ConsumeRecoveryCode(ctx, userID, totp.HashRecoveryCode(code), m.now().UTC())
}

// Regenerate replaces all codes of the user with a fresh batch.
func (m *RecoveryManager) Regenerate(ctx context.Context, userID uuid.UUID) ([]string, error) {
	codes, rows, err := m.NewBatch(userID)
	if err != nil {
		return nil, err
	}
	if err := m.storage.ReplaceRecoveryCodes(ctx, userID, rows); err != nil {
		return nil, err
	}
	return codes, nil
}

// Remaining counts unused codes.
func (m *RecoveryManager) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.storage.CountUnusedRecoveryCodes(ctx, userID)
}
