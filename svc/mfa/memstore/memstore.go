// Package memstore is an in-memory implementation of mfa.Storage and
// mfa.AttemptStorage. A single mutex serializes every operation, which gives
// the same atomicity as the transactional stores. Intended for tests and
// single-process development servers.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/rbac"
	"github.com/dmitrymomot/mfakit/svc/mfa"
)

type profile struct {
	email string
	role  rbac.Role
	state mfa.State
}

// Store holds all MFA state in memory.
type Store struct {
	mu          sync.Mutex
	profiles    map[uuid.UUID]profile
	enrollments map[uuid.UUID]mfa.Enrollment
	codes       map[uuid.UUID][]mfa.RecoveryCode
	challenges  map[string]mfa.Challenge
	attempts    []mfa.Attempt
}

var (
	_ mfa.Storage        = (*Store)(nil)
	_ mfa.AttemptStorage = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		profiles:    make(map[uuid.UUID]profile),
		enrollments: make(map[uuid.UUID]mfa.Enrollment),
		codes:       make(map[uuid.UUID][]mfa.RecoveryCode),
		challenges:  make(map[string]mfa.Challenge),
	}
}

// PutProfile creates or replaces the profile fields the service reads.
// MFA flags are left untouched.
func (s *Store) PutProfile(p mfa.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.profiles[p.UserID]
	row.email = p.Email
	row.role = p.Role
	s.profiles[p.UserID] = row
}

func (s *Store) GetMFAState(_ context.Context, userID uuid.UUID) (mfa.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.profiles[userID].state
	state.EnrollmentTime = cloneTime(state.EnrollmentTime)
	return state, nil
}

func (s *Store) GetProfile(_ context.Context, userID uuid.UUID) (mfa.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.profiles[userID]
	return mfa.Profile{UserID: userID, Email: row.email, Role: row.role}, nil
}

func (s *Store) GetEnrollment(_ context.Context, userID uuid.UUID) (mfa.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[userID]
	if !ok {
		return mfa.Enrollment{}, mfa.ErrNotFound
	}
	e.LastUsedAt = cloneTime(e.LastUsedAt)
	return e, nil
}

func (s *Store) CreateEnrollment(_ context.Context, e mfa.Enrollment, c mfa.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enrollments[e.UserID]; ok {
		return mfa.ErrAlreadyEnrolled
	}
	s.enrollments[e.UserID] = e
	s.challenges[c.ID] = c

	row := s.profiles[e.UserID]
	row.state = mfa.State{Enabled: true}
	s.profiles[e.UserID] = row
	return nil
}

func (s *Store) ActivateEnrollment(_ context.Context, userID uuid.UUID, challengeID string, codes []mfa.RecoveryCode, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enrollments[userID]; !ok {
		return false, mfa.ErrNotFound
	}
	c, ok := s.challenges[challengeID]
	if !ok || !c.Usable(userID, at) {
		return false, nil
	}
	c.Verified = true
	c.VerifiedAt = &at
	s.challenges[challengeID] = c
	s.codes[userID] = slices.Clone(codes)

	row := s.profiles[userID]
	row.state = mfa.State{Enabled: true, Verified: true, EnrollmentTime: &at}
	s.profiles[userID] = row
	return true, nil
}

func (s *Store) TouchEnrollment(_ context.Context, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[userID]
	if !ok {
		return mfa.ErrNotFound
	}
	e.LastUsedAt = &at
	e.UpdatedAt = at
	s.enrollments[userID] = e
	return nil
}

func (s *Store) DeleteEnrollment(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enrollments[userID]; !ok {
		return mfa.ErrNotFound
	}
	delete(s.enrollments, userID)
	delete(s.codes, userID)
	for id, c := range s.challenges {
		if c.UserID == userID && !c.Verified {
			delete(s.challenges, id)
		}
	}

	row := s.profiles[userID]
	row.state = mfa.State{}
	s.profiles[userID] = row
	return nil
}

func (s *Store) ConsumeRecoveryCode(_ context.Context, userID uuid.UUID, codeHash string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := s.codes[userID]
	for i := range codes {
		if codes[i].CodeHash == codeHash && !codes[i].Used {
			codes[i].Used = true
			codes[i].UsedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ReplaceRecoveryCodes(_ context.Context, userID uuid.UUID, codes []mfa.RecoveryCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enrollments[userID]; !ok {
		return mfa.ErrNotFound
	}
	s.codes[userID] = slices.Clone(codes)
	return nil
}

func (s *Store) CountUnusedRecoveryCodes(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.codes[userID] {
		if !c.Used {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateChallenge(_ context.Context, c mfa.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[c.ID] = c
	return nil
}

func (s *Store) GetChallenge(_ context.Context, id string) (mfa.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return mfa.Challenge{}, mfa.ErrNotFound
	}
	return c, nil
}

func (s *Store) VerifyChallenge(_ context.Context, id string, userID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok || !c.Usable(userID, at) {
		return false, nil
	}
	c.Verified = true
	c.VerifiedAt = &at
	s.challenges[id] = c
	return true, nil
}

func (s *Store) DeleteExpiredChallenges(_ context.Context, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.challenges {
		if !c.Verified && !c.ExpiresAt.After(at) {
			delete(s.challenges, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) LogAttempt(_ context.Context, a mfa.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, a)
	return nil
}

func (s *Store) CountFailures(_ context.Context, userID uuid.UUID, ip string, since time.Time) (mfa.FailureCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts mfa.FailureCounts
	for _, a := range s.attempts {
		if a.Success || a.CreatedAt.Before(since) {
			continue
		}
		if a.UserID == userID {
			counts.User++
		}
		if ip != "" && a.IP == ip {
			counts.IP++
		}
	}
	return counts, nil
}

// Attempts returns a copy of the ledger.
func (s *Store) Attempts() []mfa.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.attempts)
}

// RecoveryCodes returns a copy of the stored code rows of the user.
func (s *Store) RecoveryCodes(userID uuid.UUID) []mfa.RecoveryCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.codes[userID])
}

// ChallengeCount returns the number of stored challenges.
func (s *Store) ChallengeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.challenges)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
