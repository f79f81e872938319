package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived AES-256 key length.
	KeySize = 32

	// DefaultIterations is used when Config.Iterations is zero.
	DefaultIterations = 210000

	// MinIterations is the lowest PBKDF2 iteration count NewCipher accepts.
	MinIterations = 100000

	// kdfSalt provides domain separation; bump the version to re-key.
	kdfSalt = "mfakit-totp-secret-v1"
)

// deriveKey stretches the master key into an AES-256 key.
// The caller is responsible for clearing the returned key with clearBytes.
func deriveKey(masterKey string, iterations int) []byte {
	return pbkdf2.Key([]byte(masterKey), []byte(kdfSalt), iterations, KeySize, sha256.New)
}

// clearBytes zeros out a byte slice holding key material.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateMasterKey creates a random base64-encoded 32-byte master key.
func GenerateMasterKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	defer clearBytes(key)
	return base64.StdEncoding.EncodeToString(key), nil
}
