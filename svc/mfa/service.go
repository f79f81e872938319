package mfa

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/rbac"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// Service orchestrates enrollment, verification and recovery.
// It is stateless; all durable state lives in Storage and AttemptStorage.
type Service struct {
	cfg        Config
	storage    Storage
	cipher     SecretCipher
	engine     *totp.Engine
	challenges *ChallengeStore
	recovery   *RecoveryManager
	attempts   *AttemptLedger
	authz      rbac.Authorizer
	qr         QRRenderer
	metrics    *Metrics
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The default discards output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source for codes, challenges and the ledger.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithQRRenderer makes Enroll include a QR code data URI.
func WithQRRenderer(r QRRenderer) Option {
	return func(s *Service) {
		s.qr = r
	}
}

// WithAuthorizer replaces the role matrix derived from Config.BypassPermissions.
func WithAuthorizer(a rbac.Authorizer) Option {
	return func(s *Service) {
		if a != nil {
			s.authz = a
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

var (
	errMissingStorage = errors.New("storage is required")
	errMissingCipher  = errors.New("secret cipher is required")
)

// New creates the MFA service. Missing collaborators or invalid TOTP
// parameters return ErrConfiguration.
func New(cfg Config, storage Storage, attempts AttemptStorage, cipher SecretCipher, opts ...Option) (*Service, error) {
	if storage == nil || attempts == nil {
		return nil, errors.Join(ErrConfiguration, errMissingStorage)
	}
	if cipher == nil {
		return nil, errors.Join(ErrConfiguration, errMissingCipher)
	}

	cfg = cfg.withDefaults()
	if err := cfg.TOTP.Params().Validate(); err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	s := &Service{
		cfg:     cfg,
		storage: storage,
		cipher:  cipher,
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.authz == nil {
		s.authz = rbac.NewAuthorizer(rbac.WithBypass(cfg.BypassPermissions))
	}

	s.log = s.log.With(logger.Component("mfa"))
	s.engine = totp.NewEngine(totp.WithClock(s.now))
	s.challenges = NewChallengeStore(storage, cfg.ChallengeTTL, s.now, s.log)
	s.challenges.metrics = s.metrics
	s.recovery = NewRecoveryManager(storage, cfg.RecoveryCodeCount, s.now)
	s.attempts = NewAttemptLedger(attempts, cfg.RateLimitThreshold, cfg.RateLimitWindow, s.now)

	return s, nil
}

// Challenges exposes the challenge store, mainly for the sweeper.
func (s *Service) Challenges() *ChallengeStore {
	return s.challenges
}

// RunSweeper removes expired setup challenges every Config.SweepInterval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context) error {
	return s.challenges.RunSweeper(ctx, s.cfg.SweepInterval)
}

// Enroll starts TOTP enrollment for userID. The returned secret is shown once;
// the enrollment stays inactive until VerifySetup succeeds.
func (s *Service) Enroll(ctx context.Context, userID uuid.UUID) (EnrollResult, error) {
	return run(ctx, s, OpEnroll, userID, func(ctx context.Context) (EnrollResult, error) {
		if userID == uuid.Nil {
			return EnrollResult{}, ErrValidation
		}

		_, err := s.storage.GetEnrollment(ctx, userID)
		switch {
		case err == nil:
			return EnrollResult{}, ErrAlreadyEnrolled
		case !errors.Is(err, ErrNotFound):
			return EnrollResult{}, s.internal(ctx, OpEnroll, userID, "failed to load enrollment", err)
		}

		profile, err := s.storage.GetProfile(ctx, userID)
		if err != nil {
			return EnrollResult{}, s.internal(ctx, OpEnroll, userID, "failed to load profile", err)
		}

		secret, err := totp.GenerateSecret()
		if err != nil {
			return EnrollResult{}, s.internal(ctx, OpEnroll, userID, "failed to generate secret", err)
		}
		encrypted, err := s.cipher.Encrypt(secret)
		if err != nil {
			return EnrollResult{}, s.internal(ctx, OpEnroll, userID, "failed to encrypt secret", err)
		}

		params := s.cfg.TOTP.Params()
		account := profile.Email
		if account == "" {
			account = userID.String()
		}
		uri, err := totp.URI(totp.URIParams{
			Secret:      secret,
			AccountName: account,
			Issuer:      s.cfg.TOTP.Issuer,
			Params:      params,
		})
		if err != nil {
			s.log.ErrorContext(ctx, "failed to build provisioning uri",
				logger.Operation(string(OpEnroll)), logger.UserID(userID), logger.Error(err))
			return EnrollResult{}, ErrConfiguration
		}

		challenge, err := s.challenges.New(userID)
		if err != nil {
			return EnrollResult{}, s.internal(ctx, OpEnroll, userID, "failed to create challenge", err)
		}

		now := s.now().UTC()
		enrollment := Enrollment{
			UserID:          userID,
			EncryptedSecret: encrypted,
			DisplayName:     account,
			Params:          params,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.storage.CreateEnrollment(ctx, enrollment, challenge); err != nil {
			if errors.Is(err, ErrAlreadyEnrolled) {
				return EnrollResult{}, ErrAlreadyEnrolled
			}
			return EnrollResult{}, s.internal(ctx, OpEnroll, userID, "failed to store enrollment", err)
		}

		result := EnrollResult{
			Secret:      secret,
			URI:         uri,
			ChallengeID: challenge.ID,
			Algorithm:   params.Algorithm,
			Digits:      params.Digits,
			Period:      params.Period,
			ExpiresAt:   challenge.ExpiresAt,
		}
		if s.qr != nil {
			qr, err := s.qr.DataURI(uri)
			if err != nil {
				s.log.WarnContext(ctx, "failed to render qr code",
					logger.Operation(string(OpEnroll)), logger.UserID(userID), logger.Error(err))
			} else {
				result.QRCode = qr
			}
		}

		s.log.InfoContext(ctx, "mfa enrollment started",
			logger.Operation(string(OpEnroll)), logger.UserID(userID))
		return result, nil
	})
}

// VerifySetup confirms the first code of a pending enrollment, activates MFA
// and returns the initial recovery codes.
func (s *Service) VerifySetup(ctx context.Context, in VerifySetupInput) (VerifySetupResult, error) {
	return run(ctx, s, OpVerifySetup, in.UserID, func(ctx context.Context) (VerifySetupResult, error) {
		if in.UserID == uuid.Nil || in.ChallengeID == "" || totp.NormalizeCode(in.Code) == "" {
			return VerifySetupResult{}, ErrValidation
		}
		meta := attemptMeta{op: OpVerifySetup, userID: in.UserID, ip: in.IP, userAgent: in.UserAgent}
		if err := s.checkRateLimit(ctx, meta); err != nil {
			return VerifySetupResult{}, err
		}

		usable, err := s.challenges.Check(ctx, in.ChallengeID, in.UserID)
		if err != nil {
			return VerifySetupResult{}, s.internal(ctx, meta.op, in.UserID, "failed to load challenge", err)
		}
		if !usable {
			return VerifySetupResult{}, s.reject(ctx, meta, ErrInvalidChallenge)
		}

		enrollment, err := s.storage.GetEnrollment(ctx, in.UserID)
		if errors.Is(err, ErrNotFound) {
			return VerifySetupResult{}, s.reject(ctx, meta, ErrInvalidChallenge)
		}
		if err != nil {
			return VerifySetupResult{}, s.internal(ctx, meta.op, in.UserID, "failed to load enrollment", err)
		}

		valid, err := s.verifyCode(ctx, meta, enrollment, in.Code)
		if err != nil {
			return VerifySetupResult{}, err
		}
		if !valid {
			return VerifySetupResult{}, s.reject(ctx, meta, ErrInvalidCode)
		}

		codes, rows, err := s.recovery.NewBatch(in.UserID)
		if err != nil {
			return VerifySetupResult{}, s.internal(ctx, meta.op, in.UserID, "failed to generate recovery codes", err)
		}

		// The challenge is consumed in the activation transaction, so a failed
		// activation leaves it usable for a retry.
		activated, err := s.storage.ActivateEnrollment(ctx, in.UserID, in.ChallengeID, rows, s.now().UTC())
		switch {
		case errors.Is(err, ErrNotFound):
			return VerifySetupResult{}, s.reject(ctx, meta, ErrInvalidChallenge)
		case err != nil:
			return VerifySetupResult{}, s.internal(ctx, meta.op, in.UserID, "failed to activate enrollment", err)
		case !activated:
			return VerifySetupResult{}, s.reject(ctx, meta, ErrInvalidChallenge)
		}

		s.accept(ctx, meta)
		s.log.InfoContext(ctx, "mfa enabled", logger.Operation(string(meta.op)), logger.UserID(in.UserID))
		return VerifySetupResult{RecoveryCodes: codes}, nil
	})
}

// Authenticate verifies a login-time code for a user with active MFA.
func (s *Service) Authenticate(ctx context.Context, in AuthInput) (AuthResult, error) {
	return run(ctx, s, OpAuthenticate, in.UserID, func(ctx context.Context) (AuthResult, error) {
		if in.UserID == uuid.Nil || totp.NormalizeCode(in.Code) == "" {
			return AuthResult{}, ErrValidation
		}
		meta := attemptMeta{op: OpAuthenticate, userID: in.UserID, ip: in.IP, userAgent: in.UserAgent}
		if err := s.checkRateLimit(ctx, meta); err != nil {
			return AuthResult{}, err
		}

		enrollment, err := s.activeEnrollment(ctx, meta)
		if err != nil {
			return AuthResult{}, err
		}

		valid, err := s.verifyCode(ctx, meta, enrollment, in.Code)
		if err != nil {
			return AuthResult{}, err
		}
		if !valid {
			return AuthResult{}, s.reject(ctx, meta, ErrInvalidCode)
		}

		if err := s.storage.TouchEnrollment(ctx, in.UserID, s.now().UTC()); err != nil {
			s.log.WarnContext(ctx, "failed to update last used time",
				logger.Operation(string(meta.op)), logger.UserID(in.UserID), logger.Error(err))
		}

		s.accept(ctx, meta)
		return AuthResult{Success: true, SessionID: in.SessionID}, nil
	})
}

// ValidateRecovery consumes a recovery code in place of a TOTP code.
func (s *Service) ValidateRecovery(ctx context.Context, in RecoveryInput) (RecoveryResult, error) {
	return run(ctx, s, OpValidateRecovery, in.UserID, func(ctx context.Context) (RecoveryResult, error) {
		if in.UserID == uuid.Nil || totp.NormalizeRecoveryCode(in.Code) == "" {
			return RecoveryResult{}, ErrValidation
		}
		meta := attemptMeta{op: OpValidateRecovery, userID: in.UserID, ip: in.IP, userAgent: in.UserAgent}
		if err := s.checkRateLimit(ctx, meta); err != nil {
			return RecoveryResult{}, err
		}

		consumed, err := s.recovery.Consume(ctx, in.UserID, in.Code)
		if err != nil {
			return RecoveryResult{}, s.internal(ctx, meta.op, in.UserID, "failed to consume recovery code", err)
		}
		if !consumed {
			return RecoveryResult{}, s.reject(ctx, meta, ErrInvalidRecoveryCode)
		}

		remaining, err := s.recovery.Remaining(ctx, in.UserID)
		if err != nil {
			s.log.WarnContext(ctx, "failed to count recovery codes",
				logger.Operation(string(meta.op)), logger.UserID(in.UserID), logger.Error(err))
		}

		s.accept(ctx, meta)
		s.log.InfoContext(ctx, "recovery code used",
			logger.Operation(string(meta.op)), logger.UserID(in.UserID), logger.Count(int64(remaining)))
		return RecoveryResult{Success: true, SessionID: in.SessionID, Remaining: remaining}, nil
	})
}

// Disable removes the enrollment and all recovery codes of the caller.
// Without a code the caller's role must grant rbac.ActionDisableWithoutCode.
func (s *Service) Disable(ctx context.Context, in DisableInput) error {
	_, err := run(ctx, s, OpDisable, in.UserID, func(ctx context.Context) (struct{}, error) {
		if in.UserID == uuid.Nil {
			return struct{}{}, ErrValidation
		}
		meta := attemptMeta{op: OpDisable, userID: in.UserID, ip: in.IP, userAgent: in.UserAgent}

		if totp.NormalizeCode(in.Code) != "" {
			if err := s.checkRateLimit(ctx, meta); err != nil {
				return struct{}{}, err
			}
			enrollment, err := s.enrollment(ctx, meta)
			if err != nil {
				return struct{}{}, err
			}
			valid, err := s.verifyCode(ctx, meta, enrollment, in.Code)
			if err != nil {
				return struct{}{}, err
			}
			if !valid {
				return struct{}{}, s.reject(ctx, meta, ErrInvalidCode)
			}
		} else {
			profile, err := s.storage.GetProfile(ctx, in.UserID)
			if err != nil {
				return struct{}{}, s.internal(ctx, meta.op, in.UserID, "failed to load profile", err)
			}
			if err := s.authz.Can(profile.Role, rbac.ActionDisableWithoutCode); err != nil {
				return struct{}{}, ErrCodeRequired
			}
			if _, err := s.enrollment(ctx, meta); err != nil {
				return struct{}{}, err
			}
			s.log.InfoContext(ctx, "mfa disable without code authorized",
				logger.Operation(string(meta.op)), logger.UserID(in.UserID), logger.Role(profile.Role.String()))
		}

		if err := s.storage.DeleteEnrollment(ctx, in.UserID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return struct{}{}, ErrNotEnrolled
			}
			return struct{}{}, s.internal(ctx, meta.op, in.UserID, "failed to delete enrollment", err)
		}

		s.accept(ctx, meta)
		s.log.InfoContext(ctx, "mfa disabled", logger.Operation(string(meta.op)), logger.UserID(in.UserID))
		return struct{}{}, nil
	})
	return err
}

// Status reports the MFA flags of userID and the live count of unused recovery codes.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (StatusResult, error) {
	return run(ctx, s, OpStatus, userID, func(ctx context.Context) (StatusResult, error) {
		if userID == uuid.Nil {
			return StatusResult{}, ErrValidation
		}
		state, err := s.storage.GetMFAState(ctx, userID)
		if err != nil {
			return StatusResult{}, s.internal(ctx, OpStatus, userID, "failed to load mfa state", err)
		}
		remaining, err := s.recovery.Remaining(ctx, userID)
		if err != nil {
			return StatusResult{}, s.internal(ctx, OpStatus, userID, "failed to count recovery codes", err)
		}
		return StatusResult{
			Enabled:                state.Enabled,
			Verified:               state.Verified,
			EnrollmentTime:         state.EnrollmentTime,
			RecoveryCodesRemaining: remaining,
		}, nil
	})
}

// RegenerateRecoveryCodes replaces every recovery code of the user after a
// successful TOTP check and returns the new batch.
func (s *Service) RegenerateRecoveryCodes(ctx context.Context, in RegenerateInput) (RegenerateResult, error) {
	return run(ctx, s, OpRegenerateRecoveryCodes, in.UserID, func(ctx context.Context) (RegenerateResult, error) {
		if in.UserID == uuid.Nil || totp.NormalizeCode(in.Code) == "" {
			return RegenerateResult{}, ErrValidation
		}
		meta := attemptMeta{op: OpRegenerateRecoveryCodes, userID: in.UserID, ip: in.IP, userAgent: in.UserAgent}
		if err := s.checkRateLimit(ctx, meta); err != nil {
			return RegenerateResult{}, err
		}

		enrollment, err := s.activeEnrollment(ctx, meta)
		if err != nil {
			return RegenerateResult{}, err
		}

		valid, err := s.verifyCode(ctx, meta, enrollment, in.Code)
		if err != nil {
			return RegenerateResult{}, err
		}
		if !valid {
			return RegenerateResult{}, s.reject(ctx, meta, ErrInvalidCode)
		}

		codes, err := s.recovery.Regenerate(ctx, in.UserID)
		if errors.Is(err, ErrNotFound) {
			return RegenerateResult{}, ErrNotEnrolled
		}
		if err != nil {
			return RegenerateResult{}, s.internal(ctx, meta.op, in.UserID, "failed to regenerate recovery codes", err)
		}

		s.accept(ctx, meta)
		s.log.InfoContext(ctx, "recovery codes regenerated",
			logger.Operation(string(meta.op)), logger.UserID(in.UserID), logger.Count(int64(len(codes))))
		return RegenerateResult{RecoveryCodes: codes}, nil
	})
}

type attemptMeta struct {
	op        Operation
	userID    uuid.UUID
	ip        string
	userAgent string
}

func (m attemptMeta) attempt(success bool) Attempt {
	return Attempt{
		UserID:    m.userID,
		IP:        m.ip,
		UserAgent: m.userAgent,
		Operation: m.op,
		Success:   success,
	}
}

// run applies the operation timeout, maps leaked errors to ErrTransient and records metrics.
func run[T any](ctx context.Context, s *Service, op Operation, userID uuid.UUID, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	res, err := fn(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && Sentinel(err) == nil {
			err = ErrTransient
		} else if Sentinel(err) == nil {
			err = s.internal(ctx, op, userID, "unexpected error", err)
		}
	}

	s.metrics.observe(op, err, time.Since(start))
	if err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}

// internal logs err with full detail and returns a bare sentinel.
func (s *Service) internal(ctx context.Context, op Operation, userID uuid.UUID, msg string, err error) error {
	level := slog.LevelError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		level = slog.LevelWarn
	}
	s.log.Log(ctx, level, msg,
		logger.Operation(string(op)), logger.UserID(userID), logger.Error(err))
	return ErrTransient
}

func (s *Service) checkRateLimit(ctx context.Context, meta attemptMeta) error {
	limited, err := s.attempts.IsRateLimited(ctx, meta.userID, meta.ip)
	if err != nil {
		return s.internal(ctx, meta.op, meta.userID, "failed to check rate limit", err)
	}
	if limited {
		s.log.WarnContext(ctx, "mfa attempt rate limited",
			logger.Operation(string(meta.op)), logger.UserID(meta.userID), logger.IP(meta.ip))
		return ErrRateLimited
	}
	return nil
}

// reject records a failed attempt and returns cause. A ledger write failure
// fails closed with ErrTransient.
func (s *Service) reject(ctx context.Context, meta attemptMeta, cause error) error {
	if err := s.attempts.Log(ctx, meta.attempt(false)); err != nil {
		return s.internal(ctx, meta.op, meta.userID, "failed to record failed attempt", err)
	}
	s.log.WarnContext(ctx, "mfa verification failed",
		logger.Operation(string(meta.op)), logger.UserID(meta.userID), logger.IP(meta.ip),
		logger.Event(Kind(cause)))
	return cause
}

func (s *Service) accept(ctx context.Context, meta attemptMeta) {
	if err := s.attempts.Log(ctx, meta.attempt(true)); err != nil {
		s.log.ErrorContext(ctx, "failed to record successful attempt",
			logger.Operation(string(meta.op)), logger.UserID(meta.userID), logger.Error(err))
	}
}

func (s *Service) enrollment(ctx context.Context, meta attemptMeta) (Enrollment, error) {
	e, err := s.storage.GetEnrollment(ctx, meta.userID)
	if errors.Is(err, ErrNotFound) {
		return Enrollment{}, ErrNotEnrolled
	}
	if err != nil {
		return Enrollment{}, s.internal(ctx, meta.op, meta.userID, "failed to load enrollment", err)
	}
	return e, nil
}

func (s *Service) activeEnrollment(ctx context.Context, meta attemptMeta) (Enrollment, error) {
	state, err := s.storage.GetMFAState(ctx, meta.userID)
	if err != nil {
		return Enrollment{}, s.internal(ctx, meta.op, meta.userID, "failed to load mfa state", err)
	}
	if !state.Active() {
		return Enrollment{}, ErrNotEnrolled
	}
	return s.enrollment(ctx, meta)
}

func (s *Service) verifyCode(ctx context.Context, meta attemptMeta, e Enrollment, code string) (bool, error) {
	secret, err := s.cipher.Decrypt(e.EncryptedSecret)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to decrypt totp secret",
			logger.Operation(string(meta.op)), logger.UserID(meta.userID), logger.Error(err))
		return false, ErrConfiguration
	}
	ok, err := s.engine.Verify(secret, code, e.Params, s.cfg.Window)
	if err != nil {
		return false, s.internal(ctx, meta.op, meta.userID, "failed to verify totp code", err)
	}
	return ok, nil
}
