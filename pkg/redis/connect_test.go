package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mfakit/pkg/redis"
)

func TestConnectValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     redis.Config
		wantErr error
	}{
		{"empty url", redis.Config{}, redis.ErrEmptyConnectionURL},
		{"malformed url", redis.Config{ConnectionURL: "http://localhost"}, redis.ErrFailedToParseRedisConnString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := redis.Connect(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, client)
		})
	}
}
