package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/config"
)

type testConfig struct {
	Name     string        `env:"APP_NAME,required"`
	Port     int           `env:"APP_PORT" envDefault:"8080"`
	Timeout  time.Duration `env:"APP_TIMEOUT" envDefault:"5s"`
	Features []string      `env:"APP_FEATURES" envSeparator:","`
}

func TestLoad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		vars    map[string]string
		opts    []config.Option
		want    testConfig
		wantErr error
	}{
		{
			name: "values and defaults",
			vars: map[string]string{"APP_NAME": "mfakit", "APP_FEATURES": "a,b"},
			want: testConfig{Name: "mfakit", Port: 8080, Timeout: 5 * time.Second, Features: []string{"a", "b"}},
		},
		{
			name: "overridden defaults",
			vars: map[string]string{"APP_NAME": "mfakit", "APP_PORT": "9090", "APP_TIMEOUT": "1m"},
			want: testConfig{Name: "mfakit", Port: 9090, Timeout: time.Minute},
		},
		{
			name: "prefix",
			vars: map[string]string{"TEST_APP_NAME": "prefixed"},
			opts: []config.Option{config.WithPrefix("TEST_")},
			want: testConfig{Name: "prefixed", Port: 8080, Timeout: 5 * time.Second},
		},
		{
			name:    "missing required",
			vars:    map[string]string{},
			wantErr: config.ErrParsingConfig,
		},
		{
			name:    "malformed value",
			vars:    map[string]string{"APP_NAME": "x", "APP_PORT": "eighty"},
			wantErr: config.ErrParsingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]config.Option{config.WithEnvironment(tt.vars)}, tt.opts...)
			got, err := config.Load[testConfig](opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIG_TEST_FILE_NAME=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CONFIG_TEST_FILE_NAME") })

	type fileConfig struct {
		Name string `env:"CONFIG_TEST_FILE_NAME,required"`
	}

	cfg, err := config.Load[fileConfig](config.WithEnvFiles(path))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)

	_, err = config.Load[fileConfig](config.WithEnvFiles(filepath.Join(t.TempDir(), "missing.env")))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoad(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		config.MustLoad[testConfig](config.WithEnvironment(map[string]string{}))
	})
	assert.NotPanics(t, func() {
		cfg := config.MustLoad[testConfig](config.WithEnvironment(map[string]string{"APP_NAME": "ok"}))
		assert.Equal(t, "ok", cfg.Name)
	})
}
