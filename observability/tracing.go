package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every speakerkit span and
// instrument.
const TracerName = "github.com/kbukum/speakerkit"

// Span names outside the per-stage spans.
const (
	SpanDiarize  = "diarization.run"
	SpanFetch    = "source.fetch"
	SpanConvert  = "source.convert"
	SpanProvider = "diarization.provider"
)

// Attribute keys.
const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
	AttrEnvironment    = "deployment.environment"
	AttrCommit         = "vcs.revision"
	AttrStage          = "diarization.stage"
	AttrRunID          = "diarization.run_id"
	AttrProvider       = "diarization.provider"
	AttrSegmentCount   = "diarization.segments"
	AttrSpeakerCount   = "diarization.speakers"
	AttrDurationMs     = "duration_ms"
	AttrStatus         = "status"
	AttrErrorMessage   = "error.message"
)

// Tracer returns a tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts name on the speakerkit tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(TracerName).Start(ctx, name, opts...)
}
