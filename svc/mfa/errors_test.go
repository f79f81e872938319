package mfa_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mfakit/svc/mfa"
)

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{mfa.ErrValidation, mfa.KindValidation},
		{mfa.ErrUnauthorized, mfa.KindUnauthorized},
		{mfa.ErrAlreadyEnrolled, mfa.KindAlreadyEnrolled},
		{mfa.ErrNotEnrolled, mfa.KindNotEnrolled},
		{mfa.ErrInvalidChallenge, mfa.KindInvalidChallenge},
		{mfa.ErrInvalidCode, mfa.KindInvalidCode},
		{mfa.ErrInvalidRecoveryCode, mfa.KindInvalidRecoveryCode},
		{mfa.ErrRateLimited, mfa.KindRateLimited},
		{mfa.ErrCodeRequired, mfa.KindCodeRequired},
		{mfa.ErrConfiguration, mfa.KindConfiguration},
		{mfa.ErrTransient, mfa.KindTransient},
		{errors.Join(mfa.ErrConfiguration, errors.New("master key is not set")), mfa.KindConfiguration},
		{fmt.Errorf("wrapped: %w", mfa.ErrRateLimited), mfa.KindRateLimited},
		{errors.New("boom"), mfa.KindInternal},
		{mfa.ErrNotFound, mfa.KindInternal},
	}

	for _, tt := range tests {
		name := tt.want
		if name == "" {
			name = "nil"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mfa.Kind(tt.err))
		})
	}
}
