package storage

import "go.uber.org/zap"

// Logger is the observability sink for pool events. It is consulted for
// saturation, refused-delete and disk-error events (including a failed
// eviction writeback) only; an ordinary eviction is not logged. It never
// influences a return value, and a nil Logger is never passed to pool
// code — callers that want silence use NewNopLogger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// zapLogger adapts a *zap.Logger to Logger.
type zapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger builds a Logger backed by zap, at the given level
// ("debug", "info", "warn", "error").
func NewZapLogger(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	var zl zap.AtomicLevel
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		return nil, errInvalidConfig("NewZapLogger", "invalid log level: "+level)
	}
	cfg.Level = zl

	base, err := cfg.Build()
	if err != nil {
		return nil, NewPoolError(ErrCodeInternal, "NewZapLogger", "failed to build zap logger", err)
	}
	return &zapLogger{logger: base.Sugar()}, nil
}

func (z *zapLogger) Info(msg string, args ...any)  { z.logger.Infow(msg, args...) }
func (z *zapLogger) Warn(msg string, args ...any)  { z.logger.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...any) { z.logger.Errorw(msg, args...) }

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
