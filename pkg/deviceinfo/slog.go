package deviceinfo

import (
	"io"
	"log/slog"
	"os"

	"github.com/opd-ai/go-deviceinfo/internal/config"
)

// SlogAdapter wraps a *slog.Logger to implement the Logger interface.
//
// Example:
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	opts := deviceinfo.DefaultOptions()
//	opts.Logger = deviceinfo.NewSlogAdapter(slog.New(handler))
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

func (s *SlogAdapter) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

func (s *SlogAdapter) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

func (s *SlogAdapter) Warn(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

func (s *SlogAdapter) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// DefaultLogger returns a text Logger on stderr at Info level.
func DefaultLogger() Logger {
	return TextLogger(os.Stderr, slog.LevelInfo)
}

// DebugLogger returns a text Logger on stderr at Debug level that also
// records the source location of each call.
func DebugLogger() Logger {
	return newSlogLogger(os.Stderr, false, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})
}

// TextLogger returns a Logger writing logfmt-style slog records to w.
func TextLogger(w io.Writer, level slog.Level) Logger {
	return newSlogLogger(w, false, &slog.HandlerOptions{Level: level})
}

// JSONLogger returns a Logger writing one JSON object per record to w.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	return newSlogLogger(w, true, &slog.HandlerOptions{Level: level})
}

func newSlogLogger(w io.Writer, json bool, opts *slog.HandlerOptions) Logger {
	if w == nil {
		w = os.Stderr
	}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		h = slog.NewJSONHandler(w, opts)
	}
	return &SlogAdapter{logger: slog.New(h)}
}

// NopLogger returns a Logger that discards all log messages.
func NopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}

// slogLevel maps a configured level onto slog.
func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newConfiguredLogger builds the logger selected by log_format and log_level.
func newConfiguredLogger(lc config.LogConfig, w io.Writer) Logger {
	switch lc.Format {
	case config.LogFormatJSON:
		return JSONLogger(w, slogLevel(lc.Level))
	case config.LogFormatZerolog:
		return ZerologLogger(w, zerologLevel(lc.Level))
	default:
		return TextLogger(w, slogLevel(lc.Level))
	}
}
