// Package observability provides the application logger: structured slog
// output to stderr plus a size-rotated log file.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	sl *slog.Logger
}

// NewLogger builds a Logger writing JSON records to a rotating file at
// logPath and to stderr. logLevel is one of debug/info/warn/error.
func NewLogger(logPath, logLevel string) *Logger {
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	handler := slog.NewJSONHandler(io.MultiWriter(os.Stderr, rotator), &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})

	return &Logger{sl: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.sl.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.sl.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.sl.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.sl.Error(msg, fields...)
}
