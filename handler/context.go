package handler

import (
	"context"
	"net/http"
	"time"
)

// Context is the request context passed to handlers.
// It behaves like the request's context.Context.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
}

// NewContext returns the default Context for a request.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &httpContext{w: w, r: r}
}

type httpContext struct {
	w http.ResponseWriter
	r *http.Request
}

func (c *httpContext) Request() *http.Request              { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }

func (c *httpContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *httpContext) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *httpContext) Err() error                  { return c.r.Context().Err() }
func (c *httpContext) Value(key any) any           { return c.r.Context().Value(key) }

// ContextKey is a collision-free context key.
type ContextKey struct{ name string }

func (c *ContextKey) String() string { return c.name }

// NewContextKey creates a context key named name.
func NewContextKey(name string) *ContextKey {
	return &ContextKey{name}
}

// ContextValueOK returns the value stored under key if it has type T.
func ContextValueOK[T any](ctx context.Context, key any) (T, bool) {
	val, ok := ctx.Value(key).(T)
	return val, ok
}
