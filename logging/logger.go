package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// Init configures the global zerolog logger.
func Init(serviceName, env string) {
	InitWithWriter(serviceName, env, os.Stdout)
}

// InitWithWriter configures the global logger to write to w.
func InitWithWriter(serviceName, env string, w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("service", serviceName).
			Logger()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}

	log.Logger = zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// WithLogger stores a request scoped logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, falling back to the global one,
// enriched with trace ids when ctx carries a valid span.
func FromContext(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger)
	if !ok {
		logger = log.Logger
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}
