package hwinfo

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the logging interface used by HardwareInfo. It follows the
// slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps a *slog.Logger to implement Logger.
//
// Example:
//
//	opts := hwinfo.DefaultOptions()
//	opts.Logger = hwinfo.NewSlogAdapter(slog.Default())
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger adapter from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// DefaultLogger logs text to stderr at Info level.
func DefaultLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// DebugLogger logs text to stderr at Debug level, including source location.
func DebugLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// JSONLogger returns a Logger that writes JSON records to w (stderr if nil).
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// NopLogger returns a Logger that discards all messages.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
