// Package pgstore implements mfa.Storage and mfa.AttemptStorage on PostgreSQL.
//
// Single-use guarantees rely on conditional UPDATE ... RETURNING statements;
// multi-table changes run in one transaction via pg.WithTx.
package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/mfakit/pkg/pg"
	"github.com/dmitrymomot/mfakit/pkg/rbac"
	"github.com/dmitrymomot/mfakit/pkg/totp"
	"github.com/dmitrymomot/mfakit/svc/mfa"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pg.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL storage backend.
type Store struct {
	db DB
}

var (
	_ mfa.Storage        = (*Store)(nil)
	_ mfa.AttemptStorage = (*Store)(nil)
)

// New creates a store on top of db.
func New(db DB) *Store {
	return &Store{db: db}
}

// PutProfile creates or updates the profile fields the service reads.
func (s *Store) PutProfile(ctx context.Context, p mfa.Profile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO mfa_profiles (user_id, email, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role, updated_at = now()`,
		p.UserID, p.Email, p.Role.String())
	return err
}

func (s *Store) GetMFAState(ctx context.Context, userID uuid.UUID) (mfa.State, error) {
	var state mfa.State
	err := s.db.QueryRow(ctx, `
		SELECT mfa_enabled, mfa_verified, mfa_enrollment_time
		FROM mfa_profiles WHERE user_id = $1`, userID,
	).Scan(&state.Enabled, &state.Verified, &state.EnrollmentTime)
	if pg.IsNotFoundError(err) {
		return mfa.State{}, nil
	}
	return state, err
}

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (mfa.Profile, error) {
	p := mfa.Profile{UserID: userID}
	var role string
	err := s.db.QueryRow(ctx, `SELECT email, role FROM mfa_profiles WHERE user_id = $1`, userID).Scan(&p.Email, &role)
	if pg.IsNotFoundError(err) {
		return p, nil
	}
	if err != nil {
		return mfa.Profile{}, err
	}
	p.Role, err = rbac.ParseRole(role)
	if err != nil {
		return mfa.Profile{}, err
	}
	return p, nil
}

func (s *Store) GetEnrollment(ctx context.Context, userID uuid.UUID) (mfa.Enrollment, error) {
	var (
		e         mfa.Enrollment
		algorithm string
	)
	err := s.db.QueryRow(ctx, `
		SELECT user_id, encrypted_secret, display_name, algorithm, digits, period,
		       created_at, updated_at, last_used_at
		FROM mfa_enrollments WHERE user_id = $1`, userID,
	).Scan(&e.UserID, &e.EncryptedSecret, &e.DisplayName, &algorithm, &e.Params.Digits, &e.Params.Period,
		&e.CreatedAt, &e.UpdatedAt, &e.LastUsedAt)
	if pg.IsNotFoundError(err) {
		return mfa.Enrollment{}, mfa.ErrNotFound
	}
	if err != nil {
		return mfa.Enrollment{}, err
	}
	e.Params.Algorithm = totp.Algorithm(algorithm)
	return e, nil
}

func (s *Store) CreateEnrollment(ctx context.Context, e mfa.Enrollment, c mfa.Challenge) error {
	return pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO mfa_enrollments (user_id, encrypted_secret, display_name, algorithm, digits, period, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.UserID, e.EncryptedSecret, e.DisplayName, string(e.Params.Algorithm), e.Params.Digits, e.Params.Period,
			e.CreatedAt, e.UpdatedAt)
		if pg.IsDuplicateKeyError(err) {
			return mfa.ErrAlreadyEnrolled
		}
		if err != nil {
			return err
		}

		if err := insertChallenge(ctx, tx, c); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO mfa_profiles (user_id, mfa_enabled, mfa_verified, mfa_enrollment_time)
			VALUES ($1, TRUE, FALSE, NULL)
			ON CONFLICT (user_id) DO UPDATE
			SET mfa_enabled = TRUE, mfa_verified = FALSE, mfa_enrollment_time = NULL, updated_at = now()`,
			e.UserID)
		return err
	})
}

func (s *Store) ActivateEnrollment(ctx context.Context, userID uuid.UUID, challengeID string, codes []mfa.RecoveryCode, at time.Time) (bool, error) {
	var activated bool
	err := pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		ok, err := consumeChallenge(ctx, tx, challengeID, userID, at)
		if err != nil || !ok {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE mfa_enrollments SET updated_at = $2 WHERE user_id = $1`, userID, at)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return mfa.ErrNotFound
		}

		if err := replaceCodes(ctx, tx, userID, codes); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE mfa_profiles
			SET mfa_enabled = TRUE, mfa_verified = TRUE, mfa_enrollment_time = $2, updated_at = now()
			WHERE user_id = $1`, userID, at)
		if err != nil {
			return err
		}
		activated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return activated, nil
}

func (s *Store) TouchEnrollment(ctx context.Context, userID uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE mfa_enrollments SET last_used_at = $2, updated_at = $2 WHERE user_id = $1`, userID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mfa.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEnrollment(ctx context.Context, userID uuid.UUID) error {
	return pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM mfa_enrollments WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return mfa.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM mfa_recovery_codes WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM mfa_challenges WHERE user_id = $1 AND verified = FALSE`, userID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE mfa_profiles
			SET mfa_enabled = FALSE, mfa_verified = FALSE, mfa_enrollment_time = NULL, updated_at = now()
			WHERE user_id = $1`, userID)
		return err
	})
}

func (s *Store) ConsumeRecoveryCode(ctx context.Context, userID uuid.UUID, codeHash string, at time.Time) (bool, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		UPDATE mfa_recovery_codes SET used = TRUE, used_at = $3
		WHERE user_id = $1 AND code_hash = $2 AND used = FALSE
		RETURNING id`, userID, codeHash, at,
	).Scan(&id)
	if pg.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ReplaceRecoveryCodes(ctx context.Context, userID uuid.UUID, codes []mfa.RecoveryCode) error {
	return pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return replaceCodes(ctx, tx, userID, codes)
	})
}

func (s *Store) CountUnusedRecoveryCodes(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM mfa_recovery_codes WHERE user_id = $1 AND used = FALSE`, userID,
	).Scan(&n)
	return n, err
}

func (s *Store) CreateChallenge(ctx context.Context, c mfa.Challenge) error {
	return insertChallenge(ctx, s.db, c)
}

func (s *Store) GetChallenge(ctx context.Context, id string) (mfa.Challenge, error) {
	var c mfa.Challenge
	err := s.db.QueryRow(ctx, `
		SELECT challenge_id, user_id, verified, created_at, expires_at, verified_at
		FROM mfa_challenges WHERE challenge_id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Verified, &c.CreatedAt, &c.ExpiresAt, &c.VerifiedAt)
	if pg.IsNotFoundError(err) {
		return mfa.Challenge{}, mfa.ErrNotFound
	}
	return c, err
}

func (s *Store) VerifyChallenge(ctx context.Context, id string, userID uuid.UUID, at time.Time) (bool, error) {
	return consumeChallenge(ctx, s.db, id, userID, at)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func consumeChallenge(ctx context.Context, db queryRower, id string, userID uuid.UUID, at time.Time) (bool, error) {
	var got string
	err := db.QueryRow(ctx, `
		UPDATE mfa_challenges SET verified = TRUE, verified_at = $3
		WHERE challenge_id = $1 AND user_id = $2 AND verified = FALSE AND expires_at > $3
		RETURNING challenge_id`, id, userID, at,
	).Scan(&got)
	if pg.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteExpiredChallenges(ctx context.Context, at time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM mfa_challenges WHERE verified = FALSE AND expires_at <= $1`, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) LogAttempt(ctx context.Context, a mfa.Attempt) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO mfa_attempts (id, user_id, ip_address, user_agent, operation, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.IP, a.UserAgent, string(a.Operation), a.Success, a.CreatedAt)
	return err
}

func (s *Store) CountFailures(ctx context.Context, userID uuid.UUID, ip string, since time.Time) (mfa.FailureCounts, error) {
	var counts mfa.FailureCounts
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM mfa_attempts
			 WHERE user_id = $1 AND success = FALSE AND created_at >= $3),
			CASE WHEN $2 = '' THEN 0 ELSE
			(SELECT count(*) FROM mfa_attempts
			 WHERE ip_address = $2 AND success = FALSE AND created_at >= $3) END`,
		userID, ip, since,
	).Scan(&counts.User, &counts.IP)
	return counts, err
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertChallenge(ctx context.Context, db execer, c mfa.Challenge) error {
	_, err := db.Exec(ctx, `
		INSERT INTO mfa_challenges (challenge_id, user_id, verified, created_at, expires_at)
		VALUES ($1, $2, FALSE, $3, $4)`,
		c.ID, c.UserID, c.CreatedAt, c.ExpiresAt)
	return err
}

// replaceCodes deletes every code of the user and bulk-inserts codes.
func replaceCodes(ctx context.Context, tx pgx.Tx, userID uuid.UUID, codes []mfa.RecoveryCode) error {
	if _, err := tx.Exec(ctx, `DELETE FROM mfa_recovery_codes WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}

	rows := make([][]any, len(codes))
	for i, c := range codes {
		rows[i] = []any{c.ID, userID, c.CodeHash, false, c.CreatedAt}
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"mfa_recovery_codes"},
		[]string{"id", "user_id", "code_hash", "used", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if pg.IsForeignKeyViolationError(err) {
		return mfa.ErrNotFound
	}
	if err != nil {
		return err
	}
	if int(n) != len(codes) {
		return errShortCopy
	}
	return nil
}

var errShortCopy = errors.New("recovery code batch partially inserted")
