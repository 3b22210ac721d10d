package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stage tracks one traced and measured unit of pipeline work.
type Stage struct {
	Name      string
	StartTime time.Time
	span      trace.Span
	metrics   *StageMetrics
}

// StartStage opens a span named after the stage. A nil tracer uses the
// global one; nil metrics skip recording.
func StartStage(ctx context.Context, tracer trace.Tracer, metrics *StageMetrics, name string) (context.Context, *Stage) {
	if tracer == nil {
		tracer = Tracer(TracerName)
	}
	ctx, span := tracer.Start(ctx, "diarization."+name)
	span.SetAttributes(attribute.String(AttrStage, name))
	return ctx, &Stage{
		Name:      name,
		StartTime: time.Now(),
		span:      span,
		metrics:   metrics,
	}
}

// Span returns the stage span.
func (s *Stage) Span() trace.Span {
	return s.span
}

// End closes the span, records the stage duration and returns it.
func (s *Stage) End(ctx context.Context, err error) time.Duration {
	duration := time.Since(s.StartTime)

	status := "ok"
	if err != nil {
		status = "error"
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		s.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	s.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	s.span.End()

	s.metrics.RecordStage(ctx, s.Name, duration, err)
	return duration
}
