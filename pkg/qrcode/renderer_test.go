package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/qrcode"
)

const testURI = "otpauth://totp/MFAKit:user@example.com?algorithm=SHA1&digits=6&issuer=MFAKit&period=30&secret=JBSWY3DPEHPK3PXP"

func TestRendererPNG(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		r    *qrcode.Renderer
		size int
	}{
		{"defaults", qrcode.New(), qrcode.DefaultSize},
		{"custom size", qrcode.New(qrcode.WithSize(128)), 128},
		{"ignored size", qrcode.New(qrcode.WithSize(-1)), qrcode.DefaultSize},
		{"high recovery", qrcode.New(qrcode.WithHighRecovery()), qrcode.DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := tt.r.PNG(testURI)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.size, img.Bounds().Dx())
			assert.Equal(t, tt.size, img.Bounds().Dy())
		})
	}
}

func TestRendererDataURI(t *testing.T) {
	t.Parallel()
	uri, err := qrcode.New().DataURI(testURI)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestRendererEmptyContent(t *testing.T) {
	t.Parallel()
	for _, content := range []string{"", "   \t\n"} {
		uri, err := qrcode.New().DataURI(content)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
		assert.Empty(t, uri)
	}
}

func TestRendererContentTooLong(t *testing.T) {
	t.Parallel()
	_, err := qrcode.New().PNG(strings.Repeat("a", 5000))
	assert.ErrorIs(t, err, qrcode.ErrFailedToGenerateQRCode)
}
