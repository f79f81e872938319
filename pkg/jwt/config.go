package jwt

import "time"

// Config holds token signing settings.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"mfakit"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"15m"`
	Leeway     time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}
