// Package handler provides type-safe HTTP request handling with JSON responses.
//
// Handlers are generic functions that receive a bound request value and return a
// Response. Wrap turns them into a plain http.HandlerFunc:
//
//	type VerifyRequest struct {
//		Code        string `json:"code"`
//		ChallengeID string `json:"challenge_id"`
//	}
//
//	func verify(ctx handler.Context, req VerifyRequest) handler.Response {
//		codes, err := svc.VerifySetup(ctx, ...)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(codes, handler.NoStore())
//	}
//
//	r.Post("/verify-setup", handler.Wrap(verify,
//		handler.WithBinders[handler.Context, VerifyRequest](binder.BindJSON()),
//	))
//
// # Responses
//
// JSON wraps data into {"data": ...}. JSONError renders {"error": {"code", "message"}}
// using the status and key of an HTTPError; any other error is reported as a generic
// internal error so raw error text never reaches the client.
//
// Empty writes 204 without a body.
//
// # Errors
//
// Binding failures are handled before the handler runs. The default error handler
// renders them as JSON errors with 400, 413 or 415 status codes. Use
// WithErrorHandler to override it.
package handler
