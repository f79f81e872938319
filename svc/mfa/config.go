package mfa

import (
	"time"

	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// Config holds MFA policy settings.
type Config struct {
	TOTP totp.Config

	// Verification window in periods on each side of the current step.
	Window             int           `env:"MFA_TOTP_WINDOW" envDefault:"1"`
	ChallengeTTL       time.Duration `env:"MFA_CHALLENGE_TTL" envDefault:"5m"`
	RecoveryCodeCount  int           `env:"MFA_RECOVERY_CODE_COUNT" envDefault:"10"`
	RateLimitThreshold int           `env:"MFA_RATE_LIMIT_THRESHOLD" envDefault:"5"`
	RateLimitWindow    time.Duration `env:"MFA_RATE_LIMIT_WINDOW" envDefault:"60m"`
	OperationTimeout   time.Duration `env:"MFA_OPERATION_TIMEOUT" envDefault:"5s"`
	SweepInterval      time.Duration `env:"MFA_SWEEP_INTERVAL" envDefault:"10m"`
	BypassPermissions  bool          `env:"MFA_BYPASS_PERMISSIONS" envDefault:"false"`
}

// Default values applied to zero Config fields.
const (
	DefaultChallengeTTL       = 5 * time.Minute
	DefaultRateLimitThreshold = 5
	DefaultRateLimitWindow    = time.Hour
	DefaultOperationTimeout   = 5 * time.Second
	DefaultSweepInterval      = 10 * time.Minute
)

// DefaultConfig returns the configuration used when no environment is provided.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = "MFAKit"
	}
	if c.Window <= 0 {
		c.Window = totp.DefaultWindow
	}
	if c.ChallengeTTL <= 0 {
		c.ChallengeTTL = DefaultChallengeTTL
	}
	if c.RecoveryCodeCount <= 0 {
		c.RecoveryCodeCount = totp.DefaultRecoveryCodeCount
	}
	if c.RateLimitThreshold <= 0 {
		c.RateLimitThreshold = DefaultRateLimitThreshold
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = DefaultRateLimitWindow
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = DefaultOperationTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}
