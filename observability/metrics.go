package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// StageMetrics are the pipeline instruments. A nil *StageMetrics records
// nothing.
type StageMetrics struct {
	runs          metric.Int64Counter
	runSeconds    metric.Float64Histogram
	stageSeconds  metric.Float64Histogram
	stageFailures metric.Int64Counter
	segments      metric.Int64Counter
}

// NewStageMetrics registers the instruments on meter.
func NewStageMetrics(meter metric.Meter) (*StageMetrics, error) {
	var (
		m   StageMetrics
		err error
	)
	wrap := func(name string, err error) error {
		return fmt.Errorf("instrument %s: %w", name, err)
	}

	if m.runs, err = meter.Int64Counter("diarization.runs",
		metric.WithDescription("Diarization runs by outcome")); err != nil {
		return nil, wrap("diarization.runs", err)
	}
	if m.runSeconds, err = meter.Float64Histogram("diarization.run.duration",
		metric.WithDescription("Wall time of a diarization run"), metric.WithUnit("s")); err != nil {
		return nil, wrap("diarization.run.duration", err)
	}
	if m.stageSeconds, err = meter.Float64Histogram("diarization.stage.duration",
		metric.WithDescription("Wall time of one pipeline stage"), metric.WithUnit("s")); err != nil {
		return nil, wrap("diarization.stage.duration", err)
	}
	if m.stageFailures, err = meter.Int64Counter("diarization.stage.failures",
		metric.WithDescription("Pipeline stage failures")); err != nil {
		return nil, wrap("diarization.stage.failures", err)
	}
	if m.segments, err = meter.Int64Counter("diarization.segments",
		metric.WithDescription("Speech segments found by voice activity detection")); err != nil {
		return nil, wrap("diarization.segments", err)
	}
	return &m, nil
}

// RecordStage records one stage execution and counts it as failed when
// err is set.
func (m *StageMetrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStage, stage))
	m.stageSeconds.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.stageFailures.Add(ctx, 1, attrs)
	}
}

// RecordRun records a finished run. status is "ok" or "error".
func (m *StageMetrics) RecordRun(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStatus, status))
	m.runs.Add(ctx, 1, attrs)
	m.runSeconds.Record(ctx, d.Seconds(), attrs)
}

// RecordSegments adds n detected segments.
func (m *StageMetrics) RecordSegments(ctx context.Context, n int) {
	if m != nil && n > 0 {
		m.segments.Add(ctx, int64(n))
	}
}
