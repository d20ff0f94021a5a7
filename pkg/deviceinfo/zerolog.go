package deviceinfo

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/opd-ai/go-deviceinfo/internal/config"
)

// ZerologAdapter wraps a zerolog.Logger to implement the Logger interface.
// Key-value pairs become event fields; error values use zerolog's error
// field encoding.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger adapter from a zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// ZerologLogger returns a Logger writing timestamped zerolog JSON events to w.
func ZerologLogger(w io.Writer, level zerolog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	zlog := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &ZerologAdapter{logger: zlog}
}

// Debug logs a debug-level message with optional key-value pairs.
func (z *ZerologAdapter) Debug(msg string, args ...any) {
	withFields(z.logger.Debug(), args).Msg(msg)
}

// Info logs an info-level message with optional key-value pairs.
func (z *ZerologAdapter) Info(msg string, args ...any) {
	withFields(z.logger.Info(), args).Msg(msg)
}

// Warn logs a warning-level message with optional key-value pairs.
func (z *ZerologAdapter) Warn(msg string, args ...any) {
	withFields(z.logger.Warn(), args).Msg(msg)
}

// Error logs an error-level message with optional key-value pairs.
func (z *ZerologAdapter) Error(msg string, args ...any) {
	withFields(z.logger.Error(), args).Msg(msg)
}

// withFields adds slog-style key-value pairs to e. A trailing key without a
// value is recorded under "!BADKEY", as slog does.
func withFields(e *zerolog.Event, args []any) *zerolog.Event {
	if e == nil {
		return nil
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			e = e.Interface("!BADKEY", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		switch v := args[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case string:
			e = e.Str(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

// zerologLevel maps a configured level onto zerolog.
func zerologLevel(l config.LogLevel) zerolog.Level {
	switch l {
	case config.LogLevelDebug:
		return zerolog.DebugLevel
	case config.LogLevelWarn:
		return zerolog.WarnLevel
	case config.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
