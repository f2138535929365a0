package operations

import (
	"context"
	"time"

	"seafoodpulse/internal/infrastructure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "seafoodpulse.operations"

// operationTracer wraps operation and step execution in spans and records
// the business metrics for them.
type operationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

func newOperationTracer(metrics *infrastructure.BusinessMetrics) *operationTracer {
	return &operationTracer{tracer: otel.Tracer(TracerName), metrics: metrics}
}

func (t *operationTracer) startOperation(ctx context.Context, operationID, mode string, steps int) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("operation.mode", mode),
			attribute.Int("operation.step_count", steps),
		),
	)
	infrastructure.RecordActiveOperationChange(ctx, t.metrics, 1, mode)
	return ctx, span
}

func (t *operationTracer) endOperation(ctx context.Context, span trace.Span, operationID, mode string, duration time.Duration, err error) {
	defer span.End()
	infrastructure.RecordActiveOperationChange(ctx, t.metrics, -1, mode)
	infrastructure.RecordOperationMetrics(ctx, t.metrics, operationID, mode, duration, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (t *operationTracer) startStep(ctx context.Context, operationID, stepID string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
			attribute.Int("step.attempt", attempt),
		),
	)
}

func (t *operationTracer) endStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	defer span.End()
	infrastructure.RecordOperationStepMetrics(ctx, t.metrics, stepID, duration, err == nil)
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
