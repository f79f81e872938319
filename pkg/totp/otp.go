package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
	"golang.org/x/text/width"
)

// Algorithm is the HMAC hash used to derive codes.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

const (
	DefaultDigits    = 6             // Standard 6-digit TOTP codes
	DefaultPeriod    = 30            // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = AlgorithmSHA1 // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultWindow    = 1             // Accept one step either side of the current one

	MinPeriod = 15
	MaxPeriod = 120

	secretSize = 20 // 160-bit secret (RFC 4226 recommendation)
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Params are the code parameters recorded on an enrollment.
type Params struct {
	Algorithm Algorithm
	Digits    int
	Period    int
}

// DefaultParams returns SHA1, 6 digits, 30 seconds.
func DefaultParams() Params {
	return Params{}.WithDefaults()
}

// WithDefaults returns a copy with RFC 6238 defaults applied to zero-valued fields.
func (p Params) WithDefaults() Params {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// Validate checks that the parameters are supported.
func (p Params) Validate() error {
	switch p.Algorithm {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
	default:
		return ErrInvalidAlgorithm
	}
	if p.Digits != 6 && p.Digits != 8 {
		return ErrInvalidDigits
	}
	if p.Period < MinPeriod || p.Period > MaxPeriod {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Params) opts(window int) pqtotp.ValidateOpts {
	alg := otp.AlgorithmSHA1
	switch p.Algorithm {
	case AlgorithmSHA256:
		alg = otp.AlgorithmSHA256
	case AlgorithmSHA512:
		alg = otp.AlgorithmSHA512
	}
	return pqtotp.ValidateOpts{
		Period:    uint(p.Period),
		Skew:      uint(window),
		Digits:    otp.Digits(p.Digits),
		Algorithm: alg,
	}
}

// GenerateSecret generates a new Base32-encoded secret key without padding.
func GenerateSecret() (string, error) {
	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return b32.EncodeToString(secret), nil
}

// URIParams describes the provisioning URI handed to authenticator apps.
type URIParams struct {
	Secret      string // Base32-encoded secret (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Params
}

// Validate ensures all required URI parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return p.Params.WithDefaults().Validate()
}

// URI creates a properly encoded otpauth URI for use with authenticator apps.
// The URI format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func URI(p URIParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	params := p.Params.WithDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(p.Issuer),
		url.PathEscape(p.AccountName),
	)

	query := url.Values{}
	query.Set("secret", p.Secret)
	query.Set("issuer", p.Issuer)
	query.Set("algorithm", string(params.Algorithm))
	query.Set("digits", strconv.Itoa(params.Digits))
	query.Set("period", strconv.Itoa(params.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// Engine verifies and generates time-based codes against an injectable clock.
type Engine struct {
	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine using the system clock by default.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify reports whether code matches secret within window steps of the current time.
// A malformed code is a mismatch, not an error. A malformed secret returns ErrInvalidSecret.
func (e *Engine) Verify(secret, code string, p Params, window int) (bool, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return false, err
	}
	if window < 0 {
		return false, ErrInvalidWindow
	}

	secret, err := normalizeSecret(secret)
	if err != nil {
		return false, err
	}

	code = NormalizeCode(code)
	if !isNumeric(code, p.Digits) {
		return false, nil
	}

	ok, err := pqtotp.ValidateCustom(code, secret, e.now().UTC(), p.opts(window))
	if err != nil {
		if errors.Is(err, otp.ErrValidateInputInvalidLength) {
			return false, nil
		}
		return false, errors.Join(ErrInvalidSecret, err)
	}
	return ok, nil
}

// GenerateCode returns the code for the step containing t.
func (e *Engine) GenerateCode(secret string, p Params, t time.Time) (string, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return "", err
	}

	secret, err := normalizeSecret(secret)
	if err != nil {
		return "", err
	}

	code, err := pqtotp.GenerateCodeCustom(secret, t.UTC(), p.opts(0))
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return code, nil
}

// NormalizeCode folds full-width characters and strips whitespace.
func NormalizeCode(code string) string {
	code = width.Fold.String(code)
	return strings.Join(strings.Fields(code), "")
}

func normalizeSecret(secret string) (string, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" {
		return "", ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}
	if _, err := b32.DecodeString(strings.TrimRight(secret, "=")); err != nil {
		return "", errors.Join(ErrInvalidSecret, err)
	}
	return secret, nil
}

func isNumeric(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
