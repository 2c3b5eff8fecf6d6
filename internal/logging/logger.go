// Package logging provides a small component-scoped wrapper around
// log/slog, matching the printf-style Debug/Warn/Error calls used
// throughout the engine.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Logger is the printf-style logging surface components depend on.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type componentLogger struct {
	component string
	base      *slog.Logger
}

var (
	baseMu     sync.RWMutex
	baseLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// SetLevel adjusts the process-wide minimum log level. Valid values are
// "debug", "info", "warn", "error".
func SetLevel(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	baseMu.Lock()
	defer baseMu.Unlock()
	baseLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// NewComponentLogger returns a Logger that tags every line with
// component, e.g. "engine", "llm-retry", "permission".
func NewComponentLogger(component string) Logger {
	baseMu.RLock()
	base := baseLogger
	baseMu.RUnlock()
	return &componentLogger{component: component, base: base}
}

func (l *componentLogger) Debug(format string, args ...any) { l.log(slog.LevelDebug, format, args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.log(slog.LevelInfo, format, args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.log(slog.LevelWarn, format, args...) }
func (l *componentLogger) Error(format string, args ...any) { l.log(slog.LevelError, format, args...) }

func (l *componentLogger) log(level slog.Level, format string, args ...any) {
	l.base.Log(context.Background(), level, fmt.Sprintf(format, args...), "component", l.component)
}
