// Package config loads typed configuration structs from environment variables.
//
// Struct fields are described with github.com/caarlos0/env/v11 tags. A ./.env
// file, if present, is read once per process with github.com/joho/godotenv
// before the first parse; variables already set in the environment take
// precedence over the file.
//
// # Usage
//
//	type AppConfig struct {
//	    Env  string `env:"APP_ENV" envDefault:"development"`
//	    Name string `env:"APP_NAME" envDefault:"mfakit"`
//	}
//
//	cfg, err := config.Load[AppConfig]()
//	pgCfg := config.MustLoad[pg.Config]()
//
// Tests can parse from an explicit map with WithEnvironment and never touch
// the process environment.
package config
