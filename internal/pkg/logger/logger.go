package logger

import (
	"context"
	"strings"

	"github.com/ougirez/volstat/internal/pkg/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base = zap.NewNop().Sugar()

// Init configures the global logger. format is "json" or "console".
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger replaces the global logger; tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	base = l.Sugar()
}

func Sync() {
	_ = base.Sync()
}

// With returns a context carrying extra key/value pairs for every log line written with it.
func With(ctx context.Context, keysAndValues ...interface{}) context.Context {
	fields := append(fieldsFrom(ctx), keysAndValues...)
	return context.WithValue(ctx, constants.LoggerFieldsKey, fields)
}

func fieldsFrom(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(constants.LoggerFieldsKey).([]interface{})
	out := make([]interface{}, len(fields))
	copy(out, fields)
	return out
}

func withCtx(ctx context.Context) *zap.SugaredLogger {
	if fields := fieldsFrom(ctx); len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

func Debugf(ctx context.Context, template string, args ...interface{}) {
	withCtx(ctx).Debugf(template, args...)
}

func Infof(ctx context.Context, template string, args ...interface{}) {
	withCtx(ctx).Infof(template, args...)
}

func Info(ctx context.Context, msg string) {
	withCtx(ctx).Info(msg)
}

func Warnf(ctx context.Context, template string, args ...interface{}) {
	withCtx(ctx).Warnf(template, args...)
}

func Errorf(ctx context.Context, template string, args ...interface{}) {
	withCtx(ctx).Errorf(template, args...)
}

func Error(ctx context.Context, msg string) {
	withCtx(ctx).Error(msg)
}

func Fatal(ctx context.Context, err error) {
	withCtx(ctx).Fatal(err)
}
