package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

type options struct {
	files       []string
	prefix      string
	environment map[string]string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles loads the given files into the process environment before parsing.
// Missing files are an error, unlike the implicit ./.env lookup.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
	}
}

// WithPrefix prepends prefix to every env tag.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from vars instead of the process environment.
// No .env files are read in this mode.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) {
		o.environment = vars
	}
}

// Load parses environment variables into a new T based on its env struct tags.
// The ./.env file, when present, is loaded once per process; existing variables win.
//
// Example:
//
//	type DatabaseConfig struct {
//		ConnString string `env:"PG_CONN_URL,required"`
//		MaxConns   int32  `env:"PG_MAX_CONNS" envDefault:"10"`
//	}
//
//	cfg, err := config.Load[DatabaseConfig]()
func Load[T any](opts ...Option) (T, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.environment == nil {
		defaultEnvLoaded.Do(func() {
			// The default .env file is optional.
			_ = godotenv.Load()
		})
		if len(o.files) > 0 {
			if err := godotenv.Load(o.files...); err != nil {
				var zero T
				return zero, errors.Join(ErrLoadingEnvFile, err)
			}
		}
	}

	cfg, err := env.ParseAsWithOptions[T](env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	})
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Use it for configuration the process cannot start without.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
