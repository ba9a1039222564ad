package utils

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger is the logging surface of the worker. Services take *slog.Logger
// directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger

	LogMessage(topic, messageID string, duration time.Duration, err error, args ...any)
	LogError(err error, msg string, args ...any)
}

// SlogLogger adapts *slog.Logger to Logger. The level methods are promoted.
type SlogLogger struct {
	*slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	return &SlogLogger{Logger: logger}
}

// NewLogger returns JSON output at info level in production and text output
// at debug level elsewhere.
func NewLogger(environment string) Logger {
	if environment == "production" {
		return NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}
	return NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{Logger: l.Logger.With(args...)}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{Logger: l.Logger.WithGroup(name)}
}

// LogMessage records one consumed message. Failures are logged at error level.
func (l *SlogLogger) LogMessage(topic, messageID string, duration time.Duration, err error, args ...any) {
	level := slog.LevelInfo
	fields := []any{
		"topic", topic,
		"message_id", messageID,
		"duration", duration.String(),
	}
	if err != nil {
		level = slog.LevelError
		fields = append(fields, "error", err)
	}
	l.Log(context.Background(), level, "Handled message", append(fields, args...)...)
}

func (l *SlogLogger) LogError(err error, msg string, args ...any) {
	l.Logger.Error(msg, append([]any{"error", err}, args...)...)
}

// ToSlogLogger unwraps a Logger for libraries that take *slog.Logger.
func ToSlogLogger(logger Logger) *slog.Logger {
	if l, ok := logger.(*SlogLogger); ok {
		return l.Logger
	}
	return slog.Default()
}
