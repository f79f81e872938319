// Package secrets encrypts short secrets, such as TOTP seeds, for storage at rest.
//
// A Cipher derives a 256-bit AES key from an operator supplied master key using
// PBKDF2-HMAC-SHA256 with a fixed, versioned salt. Every call to Encrypt draws a
// fresh 12-byte nonce and returns base64(nonce || ciphertext || tag), so the blob
// carries everything Decrypt needs besides the master key.
//
// # Usage
//
//	c, err := secrets.NewCipher(secrets.Config{MasterKey: os.Getenv("MFA_MASTER_KEY")})
//	if err != nil {
//	    // secrets.ErrMasterKeyNotSet or secrets.ErrWeakIterations
//	}
//
//	blob, err := c.Encrypt("JBSWY3DPEHPK3PXP")
//	plain, err := c.Decrypt(blob)
//
// # Error Handling
//
// Decrypt never returns partial plaintext. Any failure, whether malformed base64,
// a short blob, a wrong master key or a tampered tag, wraps ErrDecryptionFailed.
//
// # Key Management
//
// GenerateMasterKey returns a base64 string of 32 random bytes suitable for the
// MFA_MASTER_KEY environment variable. Rotating the master key makes every
// stored blob undecryptable.
package secrets
