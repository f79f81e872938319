package mfa

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AttemptLedger records verification attempts and answers rate-limit queries.
type AttemptLedger struct {
	storage   AttemptStorage
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewAttemptLedger creates a ledger that limits after threshold failures within window.
func NewAttemptLedger(storage AttemptStorage, threshold int, window time.Duration, now func() time.Time) *AttemptLedger {
	if threshold <= 0 {
		threshold = DefaultRateLimitThreshold
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	if now == nil {
		now = time.Now
	}
	return &AttemptLedger{storage: storage, threshold: threshold, window: window, now: now}
}

// Log appends one record. ID and CreatedAt are filled in when empty.
func (l *AttemptLedger) Log(ctx context.Context, a Attempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = l.now().UTC()
	}
	return l.storage.LogAttempt(ctx, a)
}

// IsRateLimited reports whether the user or the ip reached the failure threshold.
func (l *AttemptLedger) IsRateLimited(ctx context.Context, userID uuid.UUID, ip string) (bool, error) {
	counts, err := l.storage.CountFailures(ctx, userID, ip, l.now().UTC().Add(-l.window))
	if err != nil {
		return false, err
	}
	return counts.User >= l.threshold || counts.IP >= l.threshold, nil
}
