package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger, set once by InitLogger in main.
var Log *zap.Logger

// InitLogger builds the production logger: JSON output, ISO8601
// timestamps, a service field on every line.
func InitLogger(serviceName string) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, _ := cfg.Build()
	Log = base.With(zap.String("service", serviceName))
}

// GetLogger returns the process logger enriched with the current trace
// and span ids when the context carries a recording span. Safe to call
// before InitLogger; tests never have to set the logger up.
func GetLogger(ctx context.Context) *zap.Logger {
	if Log == nil {
		InitLogger("sparrow")
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return Log
	}

	return Log.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
