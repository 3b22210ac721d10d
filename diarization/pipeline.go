package diarization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/cluster"
	"github.com/kbukum/speakerkit/confidence"
	"github.com/kbukum/speakerkit/embedding"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/vad"
)

// Stage names, used for spans, metrics and the stage detail of
// PIPELINE_FAILED errors.
const (
	StageSegmentation = "segmentation"
	StageEmbedding    = "embedding"
	StageClustering   = "clustering"
	StageConfidence   = "confidence"
)

const signatureLen = 16

// Pipeline runs segmentation, embedding, clustering and confidence
// estimation over one canonical buffer. It holds only read-only
// configuration and is safe for concurrent use.
type Pipeline struct {
	segmenter *vad.Segmenter
	extractor *embedding.Extractor
	clusterer *cluster.Clusterer
	estimator confidence.Estimator
	tracer    trace.Tracer
	metrics   *observability.StageMetrics

	detector  vad.Detector
	model     embedding.Model
	signature string
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithDetector replaces the energy detector.
func WithDetector(d vad.Detector) Option {
	return func(p *Pipeline) { p.detector = d }
}

// WithModel replaces the spectral embedding model.
func WithModel(m embedding.Model) Option {
	return func(p *Pipeline) { p.model = m }
}

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithMetrics records stage and run metrics.
func WithMetrics(m *observability.StageMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline builds a pipeline from cfg.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = observability.Tracer(observability.TracerName)
	}
	if p.detector == nil {
		d, err := vad.NewEnergyDetector(vad.DefaultMode)
		if err != nil {
			return nil, errors.Internal(err)
		}
		p.detector = d
	}
	if p.model == nil {
		m, err := embedding.NewSpectralModel(audio.CanonicalSampleRate)
		if err != nil {
			return nil, errors.Internal(err)
		}
		p.model = m
	}

	p.segmenter = vad.NewSegmenter(p.detector)
	p.extractor = embedding.NewExtractor(p.model, cfg.Workers)
	p.clusterer = cluster.New(cfg.NumSpeakers)
	p.signature = signature(cfg, p.detector, p.model)
	return p, nil
}

// Signature identifies the settings that shape a result: speaker count,
// detector and embedding model. Runs with equal signatures over equal
// audio produce equal results.
func (p *Pipeline) Signature() string { return p.signature }

func signature(cfg Config, d vad.Detector, m embedding.Model) string {
	h := sha256.New()
	fmt.Fprintf(h, "speakers=%d;detector=%s;model=%s;dim=%d", cfg.NumSpeakers, describe(d), describe(m), m.Dimension())
	return hex.EncodeToString(h.Sum(nil))[:signatureLen]
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}

// Run diarizes buf. Any stage failure aborts the run with a single
// PIPELINE_FAILED error carrying the stage name; no partial result is
// returned. A buffer without speech yields NoSpeechResult.
func (p *Pipeline) Run(ctx context.Context, buf *audio.Buffer, log *logger.Logger) (*Result, error) {
	if buf == nil {
		return nil, errors.InvalidAudio("no audio buffer")
	}

	runID := uuid.NewString()
	log = logger.OrNop(log).WithRun(runID).WithComponent("diarization")
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, observability.SpanDiarize)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrRunID, runID))

	result, err := p.run(ctx, buf, log)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.RecordRun(ctx, "error", elapsed)
		log.WithError(err).Error("diarization failed", logger.DurationFields("diarize", elapsed))
		return nil, err
	}

	p.metrics.RecordRun(ctx, "ok", elapsed)
	span.SetAttributes(
		attribute.Int(observability.AttrSegmentCount, len(result.DiarizedSegments)),
		attribute.Int(observability.AttrSpeakerCount, result.SpeakerCount),
	)
	if len(result.DiarizedSegments) > 0 {
		result.Debug[DebugProcessingTime] = elapsed.Seconds()
		result.Debug[DebugRunID] = runID
	}
	log.Info("diarization completed", logger.Fields(
		"segments", len(result.DiarizedSegments),
		"speakers", result.SpeakerCount,
		"confidence", result.Confidence,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, buf *audio.Buffer, log *logger.Logger) (*Result, error) {
	segments, err := runStage(ctx, p, StageSegmentation, func(context.Context) ([]vad.Segment, error) {
		return p.segmenter.Segment(buf, log)
	})
	if err != nil {
		return nil, err
	}
	p.metrics.RecordSegments(ctx, len(segments))
	if len(segments) == 0 {
		log.Info("no speech detected")
		return NoSpeechResult(), nil
	}

	vectors, err := runStage(ctx, p, StageEmbedding, func(ctx context.Context) ([]embedding.Vector, error) {
		return p.extractor.Extract(ctx, buf, segments, log)
	})
	if err != nil {
		return nil, err
	}

	labels, err := runStage(ctx, p, StageClustering, func(context.Context) ([]cluster.Label, error) {
		return p.clusterer.Cluster(vectors, log)
	})
	if err != nil {
		return nil, err
	}

	score, _ := runStage(ctx, p, StageConfidence, func(context.Context) (float64, error) {
		return p.estimator.Estimate(vectors, labels, log), nil
	})

	return assemble(segments, labels, vectors, score), nil
}

// runStage runs fn inside a stage span and wraps its failure.
func runStage[T any](ctx context.Context, p *Pipeline, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, stage := observability.StartStage(ctx, p.tracer, p.metrics, name)
	out, err := fn(ctx)
	if err != nil {
		err = errors.Pipeline(name, err)
	}
	stage.End(ctx, err)
	return out, err
}

func assemble(segments []vad.Segment, labels []cluster.Label, vectors []embedding.Vector, score float64) *Result {
	out := make([]Segment, len(segments))
	used := make(map[cluster.Label]struct{})
	for i, s := range segments {
		out[i] = Segment{
			Start:   s.Start,
			End:     s.End,
			Speaker: SpeakerName(labels[i]),
		}
		used[labels[i]] = struct{}{}
	}
	return &Result{
		DiarizedSegments: out,
		SpeakerCount:     len(used),
		Confidence:       score,
		Debug: map[string]any{
			DebugSpeechSegments: len(segments),
			DebugEmbeddings:     len(vectors),
		},
	}
}
