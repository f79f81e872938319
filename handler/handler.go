package handler

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/mfakit/binder"
)

// HandlerFunc handles a request already decoded into R.
//
//	status := handler.HandlerFunc[handler.Context, struct{}](
//		func(ctx handler.Context, _ struct{}) handler.Response {
//			return handler.JSON(lookupStatus(ctx))
//		},
//	)
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response writes itself to the client.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind decodes r into v.
type Bind func(r *http.Request, v any) error

// ErrorHandler renders binding and rendering failures.
type ErrorHandler[C Context] func(ctx C, err error)

// Decorator wraps a HandlerFunc. The first decorator passed to Wrap is the outermost.
type Decorator[C Context, R any] func(HandlerFunc[C, R]) HandlerFunc[C, R]

// WrapOption configures Wrap.
type WrapOption[C Context, R any] func(*wrapConfig[C, R])

type wrapConfig[C Context, R any] struct {
	binders      []Bind
	errorHandler ErrorHandler[C]
	decorators   []Decorator[C, R]
}

// WithBinders appends request binders. They run in order and stop at the first error.
//
//	r.Post("/disable", handler.Wrap(disable,
//		handler.WithBinders[handler.Context, DisableRequest](
//			binder.BindJSON(binder.AllowEmptyBody()),
//		),
//	))
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.binders = append(c.binders, binders...)
	}
}

// WithErrorHandler replaces the default JSON error renderer.
func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithDecorators appends decorators.
func WithDecorators[C Context, R any](decorators ...Decorator[C, R]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.decorators = append(c.decorators, decorators...)
	}
}

func defaultErrorHandler[C Context](ctx C, err error) {
	_ = JSONError(BindingError(err)).Render(ctx.ResponseWriter(), ctx.Request())
}

// BindingError converts binder errors into HTTPError values:
// 415 for a wrong or missing media type, 413 for oversized bodies, 400 for malformed JSON.
// Other errors are returned unchanged.
func BindingError(err error) error {
	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return NewHTTPError(http.StatusUnsupportedMediaType, "validation").WithMessage("content type must be application/json")
	case errors.Is(err, binder.ErrBodyTooLarge):
		return NewHTTPError(http.StatusRequestEntityTooLarge, "validation").WithMessage("request body too large")
	case errors.Is(err, binder.ErrInvalidJSON):
		return NewHTTPError(http.StatusBadRequest, "validation").WithMessage("malformed request body")
	}
	return err
}

// Wrap adapts h to http.HandlerFunc. C must be satisfied by the value NewContext returns.
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	cfg := &wrapConfig[C, R]{errorHandler: defaultErrorHandler[C]}
	for _, opt := range opts {
		opt(cfg)
	}

	next := h
	for i := len(cfg.decorators) - 1; i >= 0; i-- {
		next = cfg.decorators[i](next)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := any(NewContext(w, r)).(C)
		if !ok {
			panic("handler: context type is not satisfied by handler.NewContext")
		}

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				cfg.errorHandler(ctx, err)
				return
			}
		}

		resp := next(ctx, req)
		if resp == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}
