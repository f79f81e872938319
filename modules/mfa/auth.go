package mfa

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/handler"
	"github.com/dmitrymomot/mfakit/pkg/jwt"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	mfasvc "github.com/dmitrymomot/mfakit/svc/mfa"
)

var userIDKey = handler.NewContextKey("mfa.user_id")

// UserIDFromContext returns the authenticated user id set by the bearer middleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return handler.ContextValueOK[uuid.UUID](ctx, userIDKey)
}

// requireBearer authenticates the request with the token verifier.
// Failures are answered with a uniform 401 before the handler runs.
func (h *Handler) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.BearerTokenExtractor(r)
		if err == nil {
			var userID uuid.UUID
			userID, err = h.verifier.VerifyBearerToken(r.Context(), token)
			if err == nil && userID != uuid.Nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
				return
			}
		}

		h.log.DebugContext(r.Context(), "bearer authentication failed", logger.Error(err))
		_ = errorResponse(mfasvc.ErrUnauthorized).Render(w, r)
	})
}
