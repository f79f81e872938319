package mfa

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/binder"
	"github.com/dmitrymomot/mfakit/handler"
	"github.com/dmitrymomot/mfakit/pkg/clientip"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	mfasvc "github.com/dmitrymomot/mfakit/svc/mfa"
)

// Service is the subset of *mfasvc.Service used by the HTTP layer.
type Service interface {
	Enroll(ctx context.Context, userID uuid.UUID) (mfasvc.EnrollResult, error)
	VerifySetup(ctx context.Context, in mfasvc.VerifySetupInput) (mfasvc.VerifySetupResult, error)
	Authenticate(ctx context.Context, in mfasvc.AuthInput) (mfasvc.AuthResult, error)
	ValidateRecovery(ctx context.Context, in mfasvc.RecoveryInput) (mfasvc.RecoveryResult, error)
	Disable(ctx context.Context, in mfasvc.DisableInput) error
	Status(ctx context.Context, userID uuid.UUID) (mfasvc.StatusResult, error)
	RegenerateRecoveryCodes(ctx context.Context, in mfasvc.RegenerateInput) (mfasvc.RegenerateResult, error)
}

// Handler serves the MFA JSON API.
type Handler struct {
	svc      Service
	verifier mfasvc.TokenVerifier
	ips      *clientip.Resolver
	log      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithIPResolver overrides how the client address is derived from requests.
func WithIPResolver(res *clientip.Resolver) Option {
	return func(h *Handler) {
		if res != nil {
			h.ips = res
		}
	}
}

// NewHandler creates the MFA HTTP handler.
func NewHandler(svc Service, verifier mfasvc.TokenVerifier, opts ...Option) *Handler {
	h := &Handler{
		svc:      svc,
		verifier: verifier,
		ips:      clientip.NewResolver(),
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("mfa.http"))
	return h
}

// Handle returns the router. Mount it at /mfa.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/mfa", mfa.NewHandler(svc, jwtSvc).Handle())
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(h.ips.Middleware)

	r.Post("/authenticate", handler.Wrap(h.authenticate,
		handler.WithBinders[handler.Context, LoginCodeRequest](binder.BindJSON()),
		handler.WithErrorHandler[handler.Context, LoginCodeRequest](errorHandler),
	))
	r.Post("/validate-recovery", handler.Wrap(h.validateRecovery,
		handler.WithBinders[handler.Context, LoginCodeRequest](binder.BindJSON()),
		handler.WithErrorHandler[handler.Context, LoginCodeRequest](errorHandler),
	))

	r.Group(func(r chi.Router) {
		r.Use(h.requireBearer)

		r.Post("/enroll", handler.Wrap(h.enroll,
			handler.WithErrorHandler[handler.Context, struct{}](errorHandler),
		))
		r.Post("/verify-setup", handler.Wrap(h.verifySetup,
			handler.WithBinders[handler.Context, VerifySetupRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, VerifySetupRequest](errorHandler),
		))
		r.Post("/disable", handler.Wrap(h.disable,
			handler.WithBinders[handler.Context, DisableRequest](binder.BindJSON(binder.AllowEmptyBody())),
			handler.WithErrorHandler[handler.Context, DisableRequest](errorHandler),
		))
		r.Get("/status", handler.Wrap(h.status,
			handler.WithErrorHandler[handler.Context, struct{}](errorHandler),
		))
		r.Post("/recovery-codes/regenerate", handler.Wrap(h.regenerate,
			handler.WithBinders[handler.Context, CodeRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, CodeRequest](errorHandler),
		))
	})

	return r
}

func (h *Handler) enroll(ctx handler.Context, _ struct{}) handler.Response {
	userID, _ := UserIDFromContext(ctx)
	res, err := h.svc.Enroll(ctx, userID)
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(newEnrollResponse(res), handler.WithJSONStatus(http.StatusCreated), handler.NoStore())
}

func (h *Handler) verifySetup(ctx handler.Context, req VerifySetupRequest) handler.Response {
	userID, _ := UserIDFromContext(ctx)
	res, err := h.svc.VerifySetup(ctx, mfasvc.VerifySetupInput{
		UserID:      userID,
		ChallengeID: req.ChallengeID,
		Code:        req.Code,
		IP:          clientip.GetIPFromContext(ctx),
		UserAgent:   ctx.Request().UserAgent(),
	})
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(RecoveryCodesResponse{RecoveryCodes: res.RecoveryCodes}, handler.NoStore())
}

func (h *Handler) authenticate(ctx handler.Context, req LoginCodeRequest) handler.Response {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return errorResponse(mfasvc.ErrValidation)
	}
	res, err := h.svc.Authenticate(ctx, mfasvc.AuthInput{
		UserID:    userID,
		Code:      req.Code,
		SessionID: req.SessionID,
		IP:        clientip.GetIPFromContext(ctx),
		UserAgent: ctx.Request().UserAgent(),
	})
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(AuthenticateResponse{Success: res.Success, SessionID: res.SessionID})
}

func (h *Handler) validateRecovery(ctx handler.Context, req LoginCodeRequest) handler.Response {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return errorResponse(mfasvc.ErrValidation)
	}
	res, err := h.svc.ValidateRecovery(ctx, mfasvc.RecoveryInput{
		UserID:    userID,
		Code:      req.Code,
		SessionID: req.SessionID,
		IP:        clientip.GetIPFromContext(ctx),
		UserAgent: ctx.Request().UserAgent(),
	})
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(RecoveryResponse{Success: res.Success, SessionID: res.SessionID, Remaining: res.Remaining})
}

func (h *Handler) disable(ctx handler.Context, req DisableRequest) handler.Response {
	userID, _ := UserIDFromContext(ctx)
	err := h.svc.Disable(ctx, mfasvc.DisableInput{
		UserID:    userID,
		Code:      req.Code,
		IP:        clientip.GetIPFromContext(ctx),
		UserAgent: ctx.Request().UserAgent(),
	})
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(DisableResponse{Disabled: true})
}

func (h *Handler) status(ctx handler.Context, _ struct{}) handler.Response {
	userID, _ := UserIDFromContext(ctx)
	res, err := h.svc.Status(ctx, userID)
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(StatusResponse{
		Enabled:                res.Enabled,
		Verified:               res.Verified,
		EnrollmentTime:         res.EnrollmentTime,
		RecoveryCodesRemaining: res.RecoveryCodesRemaining,
	})
}

func (h *Handler) regenerate(ctx handler.Context, req CodeRequest) handler.Response {
	userID, _ := UserIDFromContext(ctx)
	res, err := h.svc.RegenerateRecoveryCodes(ctx, mfasvc.RegenerateInput{
		UserID:    userID,
		Code:      req.Code,
		IP:        clientip.GetIPFromContext(ctx),
		UserAgent: ctx.Request().UserAgent(),
	})
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(RecoveryCodesResponse{RecoveryCodes: res.RecoveryCodes}, handler.NoStore())
}
