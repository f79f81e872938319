package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mfakit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr", nil, "192.0.2.10:4321", "192.0.2.10"},
		{"remote addr without port", nil, "192.0.2.10", "192.0.2.10"},
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.1", "X-Forwarded-For": "198.51.100.1"}, "10.0.0.1:80", "203.0.113.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "garbage, 198.51.100.7, 10.0.0.1"}, "10.0.0.1:80", "198.51.100.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.9"}, "10.0.0.1:80", "198.51.100.9"},
		{"invalid header falls back", map[string]string{"X-Real-IP": "not-an-ip"}, "192.0.2.10:80", "192.0.2.10"},
		{"ipv6", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"ipv4-mapped ipv6", map[string]string{"X-Real-IP": "::ffff:192.0.2.5"}, "", "192.0.2.5"},
		{"nothing valid", nil, "bogus", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}

func TestResolverWithoutHeadersIgnoresProxies(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.66")

	assert.Equal(t, "192.0.2.10", clientip.NewResolver().IP(r))
	assert.Equal(t, "203.0.113.66", clientip.NewResolver("x-forwarded-for").IP(r))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	var got string
	h := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.GetIPFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.44:1000"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.44", got)
	assert.Empty(t, clientip.GetIPFromContext(r.Context()))
}
