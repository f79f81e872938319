package logger

import (
	"log/slog"
	"time"
)

// Error records a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Role records a role name under the key "role".
func Role(role any) slog.Attr {
	if role == nil {
		return slog.Attr{}
	}
	return slog.Any("role", role)
}

// Operation records the MFA operation name under the key "operation".
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// IP records the client address under the key "ip".
// An empty address yields an empty Attr.
func IP(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("ip", addr)
}

// Count records a number of affected items under the key "count".
func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Handler(name string) slog.Attr {
	return slog.String("handler", name)
}
