package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

// logger is the subset of *slog.Logger used for migration output.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// gooseLogger routes goose's Printf-style output to a structured logger.
type gooseLogger struct {
	ctx context.Context
	log logger
}

func newGooseLogger(ctx context.Context, log logger) goose.Logger {
	return &gooseLogger{ctx: ctx, log: log}
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.ErrorContext(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.InfoContext(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}
