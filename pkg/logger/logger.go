package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

// Context keys the logger extracts as structured fields.
const (
	KeyTraceID  ctxKey = "trace_id"
	KeyOrderID  ctxKey = "order_id"
	KeyProvider ctxKey = "provider"
	KeyWorkerID ctxKey = "worker_id"
)

// Logger is the ctx-aware logging interface used across the worker.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
	Sync() error
}

// ZapLogger is the zap backed Logger.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a JSON logger at the given level.
func NewZapLogger(level string) (Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger}, nil
}

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

// WithOrderID stores the order id for log field extraction.
func WithOrderID(ctx context.Context, orderID string) context.Context {
	return context.WithValue(ctx, KeyOrderID, orderID)
}

// WithTraceID stores the trace id for log field extraction.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, KeyTraceID, traceID)
}

// WithProvider stores the provider name for log field extraction.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, KeyProvider, provider)
}

// extractFields pulls known values out of ctx
func (l *ZapLogger) extractFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)
	if ctx == nil {
		return fields
	}

	if traceID, ok := ctx.Value(KeyTraceID).(string); ok && traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if orderID, ok := ctx.Value(KeyOrderID).(string); ok && orderID != "" {
		fields = append(fields, zap.String("order_id", orderID))
	}
	if provider, ok := ctx.Value(KeyProvider).(string); ok && provider != "" {
		fields = append(fields, zap.String("provider", provider))
	}
	if workerID, ok := ctx.Value(KeyWorkerID).(int); ok {
		fields = append(fields, zap.Int("worker_id", workerID))
	}

	return fields
}

// Debugf logs at debug level
func (l *ZapLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

// Infof logs at info level
func (l *ZapLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

// Warnf logs at warn level
func (l *ZapLogger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

// Errorf logs at error level
func (l *ZapLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
