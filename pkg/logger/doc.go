// Package logger builds *slog.Logger instances with functional options and
// ships attribute helpers that keep key names consistent across services.
//
// New creates a text or JSON handler and wraps it in LogHandlerDecorator, which
// runs registered ContextExtractor callbacks on every record so request-scoped
// values such as a request id are logged without threading them by hand.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "mfaserver"),
//	    logger.WithConfig(cfg.Log),
//	    logger.WithContextValue("request_id", requestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "recovery code consumed",
//	    logger.UserID(userID),
//	    logger.Operation("validate_recovery"),
//	    logger.IP(ip),
//	)
//
// # Options
//
//   - WithEnvironment: development gets debug level and text, production gets info and JSON.
//   - WithConfig: LOG_LEVEL and LOG_FORMAT overrides.
//   - WithFormat, WithLevel, WithOutput: explicit overrides.
//   - WithAttr: static attributes.
//   - WithContextExtractors, WithContextValue: attributes pulled from context.
//
// Libraries accept a *slog.Logger and default to Discard.
//
// # Error Handling
//
// Error and Errors produce attributes only for non-nil errors, so
//
//	log.Info("operation finished", logger.Error(err))
//
// needs no nil check.
package logger
