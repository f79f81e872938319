package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content string is empty or only whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerateQRCode is returned when encoding fails, e.g. content too long.
	ErrFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

const (
	// DefaultSize is the image width and height in pixels.
	DefaultSize = 256

	dataURIPrefix = "data:image/png;base64,"
)

// Renderer encodes content as PNG QR codes.
type Renderer struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels. Non-positive values are ignored.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithHighRecovery switches error correction from medium (15%) to high (30%).
func WithHighRecovery() Option {
	return func(r *Renderer) {
		r.level = skipqrcode.High
	}
}

// New creates a Renderer with medium error correction and DefaultSize.
func New(opts ...Option) *Renderer {
	r := &Renderer{size: DefaultSize, level: skipqrcode.Medium}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PNG returns the QR code image bytes for content.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := skipqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// DataURI returns the QR code for content as a base64 PNG data URI.
func (r *Renderer) DataURI(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
