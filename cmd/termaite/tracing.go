package main

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// initTracing installs a process-wide TracerProvider so every span the
// Task Engine and LLM Client open (internal/engine/tracing.go,
// internal/llmclient's doRequest span) is recorded and sampled rather
// than silently dropped by otel's default no-op provider. No exporter
// is attached here; wiring one (OTLP, Jaeger) is a deployment concern,
// not this CLI's.
func initTracing() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
