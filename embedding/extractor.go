package embedding

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/pipeline"
	"github.com/kbukum/speakerkit/vad"
)

// DefaultWorkers is the extraction concurrency when none is configured.
const DefaultWorkers = 4

// Extractor produces one vector per speech segment.
type Extractor struct {
	model   Model
	workers int
}

// NewExtractor returns an extractor over model. workers <= 0 selects
// DefaultWorkers.
func NewExtractor(model Model, workers int) *Extractor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Extractor{model: model, workers: workers}
}

// Dimension returns the vector length of the underlying model.
func (e *Extractor) Dimension() int { return e.model.Dimension() }

// SampleRange returns the clamped sample bounds [round(start*sr), round(end*sr)).
func SampleRange(seg vad.Segment, sampleRate, total int) (int, int) {
	start := int(math.Round(seg.Start * float64(sampleRate)))
	end := int(math.Round(seg.End * float64(sampleRate)))
	start = min(max(start, 0), total)
	end = min(max(end, 0), total)
	return start, end
}

// Extract embeds every segment of buf. Segments whose clamped sample range
// is empty get a zero vector. A model failure is EMBEDDING_FAILED naming
// the segment index.
func (e *Extractor) Extract(ctx context.Context, buf *audio.Buffer, segments []vad.Segment, log *logger.Logger) ([]Vector, error) {
	log = logger.OrNop(log).WithComponent("embedding")
	if len(segments) == 0 {
		return []Vector{}, nil
	}

	dim := e.model.Dimension()
	sr := buf.SampleRate()
	start := time.Now()
	p := pipeline.ParallelIndexed(pipeline.Enumerate(segments), e.workers, func(ctx context.Context, i int, seg vad.Segment) (Vector, error) {
		lo, hi := SampleRange(seg, sr, buf.Len())
		if hi <= lo {
			return make(Vector, dim), nil
		}
		vec, err := e.model.Embed(ctx, buf.Slice(lo, hi), sr)
		if err != nil {
			return nil, errors.Embedding(i, err)
		}
		if len(vec) != dim {
			return nil, errors.Embedding(i, fmt.Errorf("model returned %d dimensions, want %d", len(vec), dim))
		}
		return vec, nil
	})

	out, err := pipeline.Gather(ctx, p, len(segments))
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			log.Error("embedding failed", logger.ErrorFields("embed", err))
			return nil, err
		}
		return nil, errors.Embedding(-1, err)
	}

	log.Debug("segments embedded", logger.Fields(
		"segments", len(segments),
		"workers", e.workers,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return out, nil
}
