package mfa

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/mfakit/handler"
	mfasvc "github.com/dmitrymomot/mfakit/svc/mfa"
)

var statusByKind = map[string]int{
	mfasvc.KindValidation:          http.StatusBadRequest,
	mfasvc.KindUnauthorized:        http.StatusUnauthorized,
	mfasvc.KindCodeRequired:        http.StatusForbidden,
	mfasvc.KindAlreadyEnrolled:     http.StatusConflict,
	mfasvc.KindNotEnrolled:         http.StatusNotFound,
	mfasvc.KindInvalidChallenge:    http.StatusUnauthorized,
	mfasvc.KindInvalidCode:         http.StatusUnauthorized,
	mfasvc.KindInvalidRecoveryCode: http.StatusUnauthorized,
	mfasvc.KindRateLimited:         http.StatusTooManyRequests,
	mfasvc.KindConfiguration:       http.StatusInternalServerError,
	mfasvc.KindTransient:           http.StatusServiceUnavailable,
}

// StatusCode maps a service error to its HTTP status.
func StatusCode(err error) int {
	if status, ok := statusByKind[mfasvc.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// toHTTPError converts service errors. Only the sentinel message is exposed.
func toHTTPError(err error) error {
	sentinel := mfasvc.Sentinel(err)
	if sentinel == nil {
		return err
	}
	return handler.NewHTTPError(StatusCode(sentinel), mfasvc.Kind(sentinel)).WithMessage(sentinel.Error())
}

func errorResponse(err error) handler.Response {
	return handler.JSONError(toHTTPError(err))
}

// errorHandler renders binding failures with the validation kind.
func errorHandler(ctx handler.Context, err error) {
	var httpErr handler.HTTPError
	if bound := handler.BindingError(err); errors.As(bound, &httpErr) {
		_ = handler.JSONError(httpErr).Render(ctx.ResponseWriter(), ctx.Request())
		return
	}
	_ = errorResponse(err).Render(ctx.ResponseWriter(), ctx.Request())
}
