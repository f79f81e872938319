package mfa

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/logger"
)

// challengeIDBytes is the entropy of a challenge id before hex encoding.
const challengeIDBytes = 32

var errChallengeEntropy = errors.New("failed to generate challenge id")

// ChallengeStore manages setup challenges: Created, then Verified, Expired or Swept.
type ChallengeStore struct {
	storage ChallengeStorage
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
	metrics *Metrics
}

// NewChallengeStore creates a challenge store with the given time-to-live.
func NewChallengeStore(storage ChallengeStorage, ttl time.Duration, now func() time.Time, log *slog.Logger) *ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Discard()
	}
	return &ChallengeStore{storage: storage, ttl: ttl, now: now, log: log}
}

// New builds an unsaved challenge for userID.
func (s *ChallengeStore) New(userID uuid.UUID) (Challenge, error) {
	id, err := newChallengeID()
	if err != nil {
		return Challenge{}, err
	}
	created := s.now().UTC()
	return Challenge{
		ID:        id,
		UserID:    userID,
		CreatedAt: created,
		ExpiresAt: created.Add(s.ttl),
	}, nil
}

// Create persists a new challenge for userID and returns its id.
func (s *ChallengeStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	c, err := s.New(userID)
	if err != nil {
		return "", err
	}
	if err := s.storage.CreateChallenge(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// Check reports whether the challenge exists and is usable by userID without consuming it.
func (s *ChallengeStore) Check(ctx context.Context, id string, userID uuid.UUID) (bool, error) {
	c, err := s.storage.GetChallenge(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Usable(userID, s.now().UTC()), nil
}

// Verify consumes the challenge. A replay, expiry or owner mismatch returns false.
func (s *ChallengeStore) Verify(ctx context.Context, id string, userID uuid.UUID) (bool, error) {
	return s.storage.VerifyChallenge(ctx, id, userID, s.now().UTC())
}

// Sweep deletes expired unverified challenges.
func (s *ChallengeStore) Sweep(ctx context.Context) (int64, error) {
	n, err := s.storage.DeleteExpiredChallenges(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	s.metrics.challengesSwept(n)
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *ChallengeStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "challenge sweeper started",
		logger.Component("mfa.sweeper"), logger.Duration(interval))

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "challenge sweeper stopped", logger.Component("mfa.sweeper"))
			return nil
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.log.ErrorContext(ctx, "failed to sweep expired challenges",
					logger.Component("mfa.sweeper"), logger.Error(err))
				continue
			}
			if n > 0 {
				s.log.InfoContext(ctx, "swept expired challenges",
					logger.Component("mfa.sweeper"), logger.Count(n))
			}
		}
	}
}

func newChallengeID() (string, error) {
	b := make([]byte, challengeIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(errChallengeEntropy, err)
	}
	return hex.EncodeToString(b), nil
}
