package embedding

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/testutil"
	"github.com/kbukum/speakerkit/vad"
)

const sr = audio.CanonicalSampleRate

func newModel(t *testing.T) *SpectralModel {
	t.Helper()
	m, err := NewSpectralModel(sr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestNewSpectralModel_Errors(t *testing.T) {
	if _, err := NewSpectralModel(0); err == nil {
		t.Error("expected error for zero rate")
	}
	if _, err := NewSpectralModel(48000); err == nil {
		t.Error("expected error when the window exceeds the FFT size")
	}
}

func TestSpectralModel_Shape(t *testing.T) {
	m := newModel(t)
	if m.Dimension() != 256 {
		t.Fatalf("expected 256 dimensions, got %d", m.Dimension())
	}

	tests := []struct {
		name    string
		samples []float32
	}{
		{"one second tone", testutil.Tone(200, 0.5, 1, sr)},
		{"shorter than a window", testutil.Tone(200, 0.5, 0.01, sr)},
		{"silence", testutil.Silence(0.5, sr)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := m.Embed(context.Background(), tc.samples, sr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(v) != SpectralDimension {
				t.Fatalf("expected %d values, got %d", SpectralDimension, len(v))
			}
			if n := floats.Norm(v, 2); math.Abs(n-1) > 1e-9 {
				t.Errorf("expected unit norm, got %v", n)
			}
			for i, x := range v {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					t.Fatalf("component %d not finite: %v", i, x)
				}
			}
		})
	}
}

func TestSpectralModel_Deterministic(t *testing.T) {
	m := newModel(t)
	s := testutil.Noise(0.3, 0.4, sr, 11)
	a, _ := m.Embed(context.Background(), s, sr)
	b, _ := m.Embed(context.Background(), s, sr)
	if !floats.Equal(a, b) {
		t.Error("same input must give the same vector")
	}
}

func TestSpectralModel_SeparatesVoices(t *testing.T) {
	m := newModel(t)
	ctx := context.Background()
	low1, _ := m.Embed(ctx, testutil.Tone(140, 0.5, 0.6, sr), sr)
	low2, _ := m.Embed(ctx, testutil.Tone(140, 0.4, 0.9, sr), sr)
	high, _ := m.Embed(ctx, testutil.Tone(900, 0.5, 0.6, sr), sr)

	same := floats.Distance(low1, low2, 2)
	diff := floats.Distance(low1, high, 2)
	if same >= diff {
		t.Errorf("expected same-pitch distance %v < different-pitch distance %v", same, diff)
	}
}

func TestSpectralModel_Errors(t *testing.T) {
	m := newModel(t)
	if _, err := m.Embed(context.Background(), nil, sr); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := m.Embed(context.Background(), make([]float32, 100), 8000); err == nil {
		t.Error("expected error for rate mismatch")
	}
}

func TestMelFilterbank_NoEmptyFilters(t *testing.T) {
	for b, f := range melFilterbank(melBands, fftSize, sr) {
		if floats.Sum(f) <= 0 {
			t.Errorf("filter %d has no weight", b)
		}
	}
}

func TestSampleRange(t *testing.T) {
	tests := []struct {
		name   string
		seg    vad.Segment
		total  int
		lo, hi int
	}{
		{"inside", vad.Segment{Start: 0.5, End: 1.0}, 32000, 8000, 16000},
		{"rounds", vad.Segment{Start: 0.00003, End: 0.00009}, 32000, 0, 1},
		{"clamped", vad.Segment{Start: 1.5, End: 3}, 32000, 24000, 32000},
		{"past end", vad.Segment{Start: 3, End: 4}, 32000, 32000, 32000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := SampleRange(tc.seg, sr, tc.total)
			if lo != tc.lo || hi != tc.hi {
				t.Errorf("expected [%d,%d), got [%d,%d)", tc.lo, tc.hi, lo, hi)
			}
		})
	}
}

// fakeModel puts the slice length in the first component so tests can check placement.
type fakeModel struct {
	dim   int
	calls int32
	delay func(n int) time.Duration
	fail  func(n int) error
}

func (f *fakeModel) Dimension() int { return f.dim }

func (f *fakeModel) Embed(_ context.Context, samples []float32, _ int) (Vector, error) {
	atomic.AddInt32(&f.calls, 1)
	n := len(samples)
	if f.delay != nil {
		time.Sleep(f.delay(n))
	}
	if f.fail != nil {
		if err := f.fail(n); err != nil {
			return nil, err
		}
	}
	v := make(Vector, f.dim)
	v[0] = float64(n)
	return v, nil
}

func TestExtractor_OrderAndZeroVectors(t *testing.T) {
	buf, _ := audio.NewBuffer(make([]float32, 3*sr), sr)
	segs := []vad.Segment{
		{Start: 0, End: 1},
		{Start: 1, End: 1.25},
		{Start: 5, End: 6},
		{Start: 2, End: 2.5},
	}
	// Longer slices finish first so completion order differs from input order.
	m := &fakeModel{dim: 3, delay: func(n int) time.Duration { return time.Duration(20000/n) * time.Millisecond }}

	vecs, err := NewExtractor(m, 4).Extract(context.Background(), buf, segs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{16000, 4000, 0, 8000}
	for i, w := range want {
		if len(vecs[i]) != 3 {
			t.Fatalf("vector %d has %d dimensions", i, len(vecs[i]))
		}
		if vecs[i][0] != w {
			t.Errorf("vector %d: expected %v, got %v", i, w, vecs[i][0])
		}
	}
	if m.calls != 3 {
		t.Errorf("empty slice must not reach the model, got %d calls", m.calls)
	}
}

func TestExtractor_Empty(t *testing.T) {
	buf, _ := audio.NewBuffer(nil, sr)
	vecs, err := NewExtractor(&fakeModel{dim: 2}, 0).Extract(context.Background(), buf, nil, nil)
	if err != nil || len(vecs) != 0 {
		t.Errorf("expected empty result, got %v %v", vecs, err)
	}
}

func TestExtractor_Errors(t *testing.T) {
	buf, _ := audio.NewBuffer(make([]float32, sr), sr)
	segs := []vad.Segment{{Start: 0, End: 0.25}, {Start: 0.5, End: 1}}

	tests := []struct {
		name  string
		model Model
	}{
		{"model error", &fakeModel{dim: 2, fail: func(n int) error {
			if n == 8000 {
				return fmt.Errorf("encoder crashed")
			}
			return nil
		}}},
		{"wrong dimension", &wrongDim{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExtractor(tc.model, 2).Extract(context.Background(), buf, segs, nil)
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeEmbedding {
				t.Fatalf("expected EMBEDDING_FAILED, got %v", err)
			}
			if _, ok := appErr.Details["segment"]; !ok {
				t.Error("expected segment detail")
			}
		})
	}
}

type wrongDim struct{}

func (wrongDim) Dimension() int { return 4 }
func (wrongDim) Embed(context.Context, []float32, int) (Vector, error) {
	return Vector{1}, nil
}

func TestExtractor_SpectralModelConcurrent(t *testing.T) {
	m := newModel(t)
	samples := testutil.Concat(testutil.Tone(150, 0.5, 1, sr), testutil.Tone(600, 0.5, 1, sr))
	buf, _ := audio.NewBuffer(samples, sr)
	var segs []vad.Segment
	for i := 0; i < 8; i++ {
		segs = append(segs, vad.Segment{Start: float64(i) * 0.25, End: float64(i+1) * 0.25})
	}

	parallel, err := NewExtractor(m, 4).Extract(context.Background(), buf, segs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	serial, _ := NewExtractor(m, 1).Extract(context.Background(), buf, segs, nil)
	for i := range segs {
		if !floats.Equal(parallel[i], serial[i]) {
			t.Errorf("segment %d differs between worker counts", i)
		}
	}
}
