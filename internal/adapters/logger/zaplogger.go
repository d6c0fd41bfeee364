package logger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cryptoTracker/internal/ports"
)

// ZapLogger implements the ports.Logger interface using zap.
type ZapLogger struct {
	base *zap.Logger
}

// New builds a zap-backed logger.
// encoding is "console" for human-readable output, anything else selects JSON.
func New(level, encoding string) (*ZapLogger, error) {
	var cfg zap.Config
	if strings.EqualFold(encoding, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.MessageKey = "msg"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = atomicLevel

	// Skip the adapter frame so callers show up in the caller field.
	base, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return Wrap(base), nil
}

// Wrap adapts an existing zap logger, e.g. one built with zaptest/observer.
func Wrap(base *zap.Logger) *ZapLogger {
	return &ZapLogger{base: base}
}

// ValidLevel reports whether level is understood by New.
func ValidLevel(level string) bool {
	var l zapcore.Level
	return l.UnmarshalText([]byte(strings.ToLower(level))) == nil
}

func (l *ZapLogger) log(_ context.Context, level zapcore.Level, msg string, err error, fields ...ports.Fields) {
	ce := l.base.Check(level, msg)
	if ce == nil {
		return
	}

	zf := make([]zap.Field, 0, 4)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	if len(fields) > 0 && fields[0] != nil {
		// Sorted for stable output ordering.
		keys := make([]string, 0, len(fields[0]))
		for k := range fields[0] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			zf = append(zf, zap.Any(k, fields[0][k]))
		}
	}
	ce.Write(zf...)
}

// Debug logs a message at Debug level.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...ports.Fields) {
	l.log(ctx, zapcore.DebugLevel, msg, nil, fields...)
}

// Info logs a message at Info level.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...ports.Fields) {
	l.log(ctx, zapcore.InfoLevel, msg, nil, fields...)
}

// Warn logs a message at Warning level.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...ports.Fields) {
	l.log(ctx, zapcore.WarnLevel, msg, nil, fields...)
}

// Error logs an error message at Error level.
func (l *ZapLogger) Error(ctx context.Context, err error, msg string, fields ...ports.Fields) {
	l.log(ctx, zapcore.ErrorLevel, msg, err, fields...)
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}
