// Package httpserver runs an http.Handler with production timeouts and
// context-driven graceful shutdown.
//
// Run binds the listener synchronously, so an occupied port is reported as
// ErrStart instead of being lost in a goroutine, then serves until the
// supplied context is cancelled. Signal handling is left to the caller,
// typically signal.NotifyContext in main, so the server composes with other
// workers under an errgroup.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// LivenessHandler and ReadinessHandler back the /health/live and
// /health/ready probes.
package httpserver
