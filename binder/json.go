package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes int64 = 64 << 10

type jsonConfig struct {
	allowEmpty bool
	maxBytes   int64
}

// JSONOption configures BindJSON.
type JSONOption func(*jsonConfig)

// AllowEmptyBody accepts requests without a body, leaving the target untouched.
// Used for endpoints whose fields are all optional.
func AllowEmptyBody() JSONOption {
	return func(c *jsonConfig) { c.allowEmpty = true }
}

// MaxBodyBytes overrides DefaultMaxBodyBytes.
func MaxBodyBytes(n int64) JSONOption {
	return func(c *jsonConfig) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// BindJSON creates a strict JSON binder: unknown fields and trailing data are rejected.
//
// Example:
//
//	http.HandleFunc("/mfa/verify-setup", handler.Wrap(verifySetup,
//		handler.WithBinders[handler.Context, VerifySetupRequest](binder.BindJSON()),
//	))
func BindJSON(opts ...JSONOption) func(r *http.Request, v any) error {
	cfg := jsonConfig{maxBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(r *http.Request, v any) error {
		if cfg.allowEmpty && (r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0) {
			return nil
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, cfg.maxBytes))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(v); err != nil {
			switch {
			case isTooLarge(err):
				return ErrBodyTooLarge
			case errors.Is(err, io.EOF):
				if cfg.allowEmpty {
					return nil
				}
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			default:
				return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			}
		}

		var extra json.RawMessage
		if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
			if isTooLarge(err) {
				return ErrBodyTooLarge
			}
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}

		return nil
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
