package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/text/width"
)

const (
	// RecoveryCodeAlphabet omits 0, O, 1 and I.
	RecoveryCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// RecoveryCodeLength is the number of alphabet characters in a code.
	RecoveryCodeLength = 10

	// DefaultRecoveryCodeCount is the batch size issued at setup and regeneration.
	DefaultRecoveryCodeCount = 10

	recoveryGroupSize = 5
)

var alphabetSize = big.NewInt(int64(len(RecoveryCodeAlphabet)))

// GenerateRecoveryCodes creates count single-use backup codes formatted as XXXXX-XXXXX.
// Each character is drawn uniformly from RecoveryCodeAlphabet (50 bits of entropy per code).
func GenerateRecoveryCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		code, err := generateRecoveryCode()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func generateRecoveryCode() (string, error) {
	var b strings.Builder
	b.Grow(RecoveryCodeLength + 1)
	for i := range RecoveryCodeLength {
		if i == recoveryGroupSize {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		b.WriteByte(RecoveryCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeRecoveryCode folds full-width characters, uppercases and strips spaces and hyphens,
// so "abcde-fghjk", "ABCDE FGHJK" and "ABCDEFGHJK" all normalize to the same value.
func NormalizeRecoveryCode(code string) string {
	code = strings.ToUpper(width.Fold.String(code))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			return -1
		}
		return r
	}, code)
}

// HashRecoveryCode returns the SHA-256 hex digest of the normalized code.
func HashRecoveryCode(code string) string {
	hash := sha256.Sum256([]byte(NormalizeRecoveryCode(code)))
	return hex.EncodeToString(hash[:])
}
