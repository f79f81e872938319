package secrets_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/secrets"
)

func newCipher(t *testing.T, key string) *secrets.Cipher {
	t.Helper()
	c, err := secrets.NewCipher(secrets.Config{MasterKey: key, Iterations: secrets.MinIterations})
	require.NoError(t, err)
	return c
}

func TestNewCipher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     secrets.Config
		wantErr error
	}{
		{"valid config", secrets.Config{MasterKey: "master", Iterations: secrets.MinIterations}, nil},
		{"default iterations", secrets.Config{MasterKey: "master"}, nil},
		{"empty master key", secrets.Config{Iterations: secrets.MinIterations}, secrets.ErrMasterKeyNotSet},
		{"weak iterations", secrets.Config{MasterKey: "master", Iterations: 1000}, secrets.ErrWeakIterations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := secrets.NewCipher(tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()
	c := newCipher(t, "correct horse battery staple")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty string", ""},
		{"base32 secret", "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"},
		{"unicode", "Hello 世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			blob, err := c.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, blob)

			plain, err := c.Decrypt(blob)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plain)
		})
	}
}

func TestCipherFreshNonce(t *testing.T) {
	t.Parallel()
	c := newCipher(t, "master")

	first, err := c.Encrypt("same-secret")
	require.NoError(t, err)
	second, err := c.Encrypt("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each encryption must use a fresh nonce")
}

func TestCipherBlobLayout(t *testing.T) {
	t.Parallel()
	c := newCipher(t, "master")

	plaintext := "JBSWY3DPEHPK3PXP"
	blob, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	// 12-byte nonce, ciphertext, 16-byte tag
	assert.Len(t, raw, 12+len(plaintext)+16)
}

func TestCipherWrongKey(t *testing.T) {
	t.Parallel()
	blob, err := newCipher(t, "key-one").Encrypt("secret")
	require.NoError(t, err)

	plain, err := newCipher(t, "key-two").Decrypt(blob)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	assert.Empty(t, plain)
}

func TestCipherDecryptInvalid(t *testing.T) {
	t.Parallel()
	c := newCipher(t, "master")

	valid, err := c.Encrypt("secret")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(valid)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name string
		blob string
	}{
		{"empty string", ""},
		{"invalid base64", "not-base64!@#$"},
		{"too short", "AA=="},
		{"tampered tag", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plain, err := c.Decrypt(tt.blob)
			require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
			assert.Empty(t, plain)
		})
	}
}

func TestGenerateMasterKey(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)

	for range 10 {
		key, err := secrets.GenerateMasterKey()
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(key)
		require.NoError(t, err)
		require.Len(t, raw, secrets.KeySize)

		require.False(t, seen[key], "generated duplicate key")
		seen[key] = true
	}
}
