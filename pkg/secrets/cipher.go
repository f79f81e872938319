package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Cipher encrypts and decrypts secrets with a key derived once at construction.
// It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the encryption key from cfg and prepares AES-256-GCM.
func NewCipher(cfg Config) (*Cipher, error) {
	if cfg.MasterKey == "" {
		return nil, ErrMasterKeyNotSet
	}

	iterations := cfg.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}
	if iterations < MinIterations {
		return nil, ErrWeakIterations
	}

	key := deriveKey(cfg.MasterKey, iterations)
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext || tag).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *Cipher) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, ErrInvalidCiphertext, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", errors.Join(ErrDecryptionFailed, ErrInvalidCiphertext)
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	return string(plain), nil
}
