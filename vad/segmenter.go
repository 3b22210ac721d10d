package vad

import (
	"math"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
)

const (
	// FrameSeconds is the analysis frame length.
	FrameSeconds = 0.030
	// MinSegmentSeconds is the shortest interval that is emitted.
	MinSegmentSeconds = 0.25
	// gapTolerance is the number of non-speech frames absorbed inside a run.
	gapTolerance = 1
)

// Segment is a speech interval in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 { return s.End - s.Start }

// Segmenter frames a buffer, classifies every frame and merges the result.
type Segmenter struct {
	detector Detector
}

// NewSegmenter returns a segmenter over d. A nil detector selects the
// energy detector at DefaultMode.
func NewSegmenter(d Detector) *Segmenter {
	if d == nil {
		d, _ = NewEnergyDetector(DefaultMode)
	}
	return &Segmenter{detector: d}
}

// FrameSize returns the number of samples in one analysis frame.
func FrameSize(sampleRate int) int {
	return int(math.Round(float64(sampleRate) * FrameSeconds))
}

// Segment returns the speech intervals of buf in ascending order.
// No speech yields an empty slice and no error.
func (s *Segmenter) Segment(buf *audio.Buffer, log *logger.Logger) ([]Segment, error) {
	log = logger.OrNop(log).WithComponent("vad")

	sr := buf.SampleRate()
	if err := buf.RequireRate(audio.CanonicalSampleRate); err != nil {
		return nil, errors.Segmentation(err)
	}

	frameSize := FrameSize(sr)
	pcm := buf.PCM16()
	numFrames := len(pcm) / frameSize
	flags := make([]bool, numFrames)
	speech := 0
	for i := 0; i < numFrames; i++ {
		frame := pcm[i*frameSize : (i+1)*frameSize]
		ok, err := s.detector.IsSpeech(frame, sr)
		if err != nil {
			log.Error("frame classification failed", logger.Fields("frame", i, "error", err.Error()))
			return nil, errors.Segmentation(err).WithDetail("frame", i)
		}
		flags[i] = ok
		if ok {
			speech++
		}
	}

	segments := MergeFrames(flags, frameSize, sr)
	log.Debug("frames classified", logger.Fields(
		"frames", numFrames,
		"speech_frames", speech,
		"segments", len(segments),
	))
	return segments, nil
}

// MergeFrames converts per-frame speech flags into intervals. A single
// non-speech frame between speech frames keeps the run together; two or
// more split it. Runs shorter than MinSegmentSeconds are discarded.
func MergeFrames(flags []bool, frameSize, sampleRate int) []Segment {
	segments := []Segment{}
	if frameSize <= 0 || sampleRate <= 0 {
		return segments
	}
	minSamples := int(math.Ceil(MinSegmentSeconds * float64(sampleRate)))

	emit := func(first, last int) {
		if (last+1-first)*frameSize < minSamples {
			return
		}
		segments = append(segments, Segment{
			Start: float64(first*frameSize) / float64(sampleRate),
			End:   float64((last+1)*frameSize) / float64(sampleRate),
		})
	}

	first, prev := -1, -1
	for i, speech := range flags {
		if !speech {
			continue
		}
		switch {
		case first < 0:
			first = i
		case i-prev > gapTolerance+1:
			emit(first, prev)
			first = i
		}
		prev = i
	}
	if first >= 0 {
		emit(first, prev)
	}
	return segments
}
