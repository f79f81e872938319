package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/totp"
	"github.com/dmitrymomot/mfakit/svc/mfa"
	"github.com/dmitrymomot/mfakit/svc/mfa/memstore"
)

func enroll(t *testing.T, store *memstore.Store, userID uuid.UUID, now time.Time) mfa.Challenge {
	t.Helper()
	c := mfa.Challenge{ID: uuid.NewString(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(5 * time.Minute)}
	e := mfa.Enrollment{UserID: userID, EncryptedSecret: "blob", Params: totp.DefaultParams(), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateEnrollment(context.Background(), e, c))
	return c
}

func TestActivateEnrollment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	codes := func(userID uuid.UUID) []mfa.RecoveryCode {
		return []mfa.RecoveryCode{{ID: uuid.New(), UserID: userID, CodeHash: totp.HashRecoveryCode("AAAAA-BBBBB"), CreatedAt: now}}
	}

	tests := []struct {
		name      string
		challenge func(c mfa.Challenge) string
		at        time.Time
		want      bool
	}{
		{"usable challenge", func(c mfa.Challenge) string { return c.ID }, now, true},
		{"expired challenge", func(c mfa.Challenge) string { return c.ID }, now.Add(5 * time.Minute), false},
		{"unknown challenge", func(mfa.Challenge) string { return "missing" }, now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := memstore.New()
			owner := uuid.New()
			c := enroll(t, store, owner, now)

			ok, err := store.ActivateEnrollment(ctx, owner, tt.challenge(c), codes(owner), tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			state, err := store.GetMFAState(ctx, owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state.Active())
			assert.Equal(t, tt.want, len(store.RecoveryCodes(owner)) == 1)
		})
	}

	t.Run("challenge of another user", func(t *testing.T) {
		t.Parallel()
		store := memstore.New()
		owner, other := uuid.New(), uuid.New()
		c := enroll(t, store, owner, now)
		enroll(t, store, other, now)

		ok, err := store.ActivateEnrollment(ctx, other, c.ID, codes(other), now)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.ActivateEnrollment(ctx, owner, c.ID, codes(owner), now)
		require.NoError(t, err)
		assert.True(t, ok, "a rejected activation leaves the challenge usable")

		ok, err = store.ActivateEnrollment(ctx, owner, c.ID, codes(owner), now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no enrollment", func(t *testing.T) {
		t.Parallel()
		store := memstore.New()
		_, err := store.ActivateEnrollment(ctx, uuid.New(), "missing", nil, now)
		assert.ErrorIs(t, err, mfa.ErrNotFound)
	})
}

func TestReplaceRecoveryCodesRequiresEnrollment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.New()
	userID := uuid.New()

	err := store.ReplaceRecoveryCodes(ctx, userID, nil)
	require.ErrorIs(t, err, mfa.ErrNotFound)

	enroll(t, store, userID, time.Now())
	require.NoError(t, store.ReplaceRecoveryCodes(ctx, userID, []mfa.RecoveryCode{{ID: uuid.New(), UserID: userID, CodeHash: "h"}}))
	assert.Len(t, store.RecoveryCodes(userID), 1)
}
