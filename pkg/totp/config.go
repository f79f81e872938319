package totp

// Config holds issuer and code parameters applied to new enrollments.
// Existing enrollments keep the parameters recorded when they were created.
type Config struct {
	Issuer    string    `env:"MFA_ISSUER" envDefault:"MFAKit"`
	Algorithm Algorithm `env:"MFA_TOTP_ALGORITHM" envDefault:"SHA1"`
	Digits    int       `env:"MFA_TOTP_DIGITS" envDefault:"6"`
	Period    int       `env:"MFA_TOTP_PERIOD" envDefault:"30"`
}

// Params returns the code parameters for new enrollments with defaults applied.
func (c Config) Params() Params {
	return Params{
		Algorithm: c.Algorithm,
		Digits:    c.Digits,
		Period:    c.Period,
	}.WithDefaults()
}
