package secrets

import "errors"

var (
	// Configuration errors
	ErrMasterKeyNotSet = errors.New("master key is not set")
	ErrWeakIterations  = errors.New("key derivation iteration count is too low")

	// Encryption/decryption errors
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
)
