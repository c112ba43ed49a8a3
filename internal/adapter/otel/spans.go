package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agora"

// StartRunSpan starts a span covering a whole run, whatever its mode.
func StartRunSpan(ctx context.Context, runID, mode string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.mode", mode),
		),
	)
}

// StartTurnSpan starts a span for one turn within a run.
func StartTurnSpan(ctx context.Context, runID string, turn int, agent string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "turn",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("turn.number", turn),
			attribute.String("turn.agent", agent),
		),
	)
}

// StartInvokeSpan starts a span for a remote agent invocation.
func StartInvokeSpan(ctx context.Context, agent, endpoint string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "invoke",
		trace.WithAttributes(
			attribute.String("agent.name", agent),
			attribute.String("agent.endpoint", endpoint),
		),
	)
}
