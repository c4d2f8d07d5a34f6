package obs

import (
	"context"
	"fmt"
	"log/slog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is a minimal logging interface for observability.
type Logger interface {
	Logf(level Level, format string, args ...interface{})
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...interface{}) {}

// SlogLogger bridges the hook to a log/slog logger. A nil L uses the
// process default.
type SlogLogger struct {
	L   *slog.Logger
	Min Level
}

func (s SlogLogger) Logf(level Level, format string, args ...interface{}) {
	if level < s.Min {
		return
	}
	l := s.L
	if l == nil {
		l = slog.Default()
	}
	l.Log(context.Background(), slogLevel(level), fmt.Sprintf(format, args...))
}

func slogLevel(l Level) slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
