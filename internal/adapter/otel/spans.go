package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "brandloom"

// StartIngestSpan starts a span for ingesting a generator result.
func StartIngestSpan(ctx context.Context, itemID, brandID, agentKind string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("brand.id", brandID),
			attribute.String("agent.kind", agentKind),
		),
	)
}

// StartDecisionSpan starts a span for an approve or reject operation.
func StartDecisionSpan(ctx context.Context, itemID, outcome string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decision",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("decision.outcome", outcome),
		),
	)
}

// StartDashboardSpan starts a span for a multi-brand dashboard aggregation.
func StartDashboardSpan(ctx context.Context, brandCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dashboard",
		trace.WithAttributes(
			attribute.Int("dashboard.brand_count", brandCount),
		),
	)
}
