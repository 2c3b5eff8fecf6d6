package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	traceScope    = "termaite.engine"
	traceSpanCall = "termaite.phase.call"

	traceAttrPhase = "termaite.phase"
)

// startPhaseSpan opens a span for one Plan/Action/Evaluate/Simple/
// completion_summary call, named after the teacher's react package
// startReactSpan/markSpanResult helpers.
func startPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	return otel.Tracer(traceScope).Start(ctx, traceSpanCall, trace.WithAttributes(
		attribute.String(traceAttrPhase, phase),
	))
}

func markSpanResult(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
