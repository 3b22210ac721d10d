package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kbukum/speakerkit/errors"
)

func TestNewBuffer_CopiesInput(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	b, err := NewBuffer(in, CanonicalSampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in[0] = 9
	if got := b.Samples()[0]; got != 0.1 {
		t.Errorf("buffer must not alias input, got %v", got)
	}

	out := b.Samples()
	out[1] = 9
	if got := b.Samples()[1]; got != 0.2 {
		t.Errorf("buffer must not alias output, got %v", got)
	}
}

func TestNewBuffer_InvalidRate(t *testing.T) {
	_, err := NewBuffer(nil, 0)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestBuffer_Duration(t *testing.T) {
	b, _ := NewBuffer(make([]float32, 24000), CanonicalSampleRate)
	if b.Seconds() != 1.5 {
		t.Errorf("expected 1.5s, got %v", b.Seconds())
	}
	if b.Duration() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s duration, got %v", b.Duration())
	}
}

func TestBuffer_Slice(t *testing.T) {
	b, _ := NewBuffer([]float32{0, 1, 2, 3, 4}, 10)

	tests := []struct {
		name       string
		start, end int
		want       int
	}{
		{"inside", 1, 3, 2},
		{"clamped end", 3, 100, 2},
		{"clamped start", -5, 2, 2},
		{"empty", 2, 2, 0},
		{"inverted", 4, 1, 0},
		{"past end", 10, 12, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.Slice(tc.start, tc.end); len(got) != tc.want {
				t.Errorf("expected %d samples, got %d", tc.want, len(got))
			}
		})
	}
}

func TestToPCM16_Clips(t *testing.T) {
	got := ToPCM16([]float32{0, 1, -1, 2, -2, 0.5})
	want := []int16{0, 32767, -32767, 32767, -32767, 16384}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestFromPCM16_RoundTrip(t *testing.T) {
	pcm := []int16{0, 1000, -1000, 32767}
	b, err := FromPCM16(pcm, CanonicalSampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back := b.PCM16()
	for i := range pcm {
		d := int(back[i]) - int(pcm[i])
		if d < -1 || d > 1 {
			t.Errorf("sample %d: expected ~%d, got %d", i, pcm[i], back[i])
		}
	}
}

func TestFingerprint(t *testing.T) {
	a, _ := NewBuffer([]float32{0.1, 0.2}, CanonicalSampleRate)
	b, _ := NewBuffer([]float32{0.1, 0.2}, CanonicalSampleRate)
	c, _ := NewBuffer([]float32{0.1, 0.3}, CanonicalSampleRate)
	d, _ := NewBuffer([]float32{0.1, 0.2}, 8000)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical audio must share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different samples must not share a fingerprint")
	}
	if a.Fingerprint() == d.Fingerprint() {
		t.Error("different rates must not share a fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("expected hex sha256, got %q", a.Fingerprint())
	}
}

func TestRequireRate(t *testing.T) {
	b, _ := NewBuffer(nil, 8000)
	if err := b.RequireRate(CanonicalSampleRate); err == nil {
		t.Error("expected error for 8 kHz buffer")
	}
	if err := b.RequireRate(8000); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(i%100) / 200
	}
	b, _ := NewBuffer(samples, CanonicalSampleRate)

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteFile(path, b); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Len() != b.Len() {
		t.Fatalf("expected %d samples, got %d", b.Len(), got.Len())
	}
	if got.SampleRate() != CanonicalSampleRate {
		t.Errorf("expected %d Hz, got %d", CanonicalSampleRate, got.SampleRate())
	}
	want := b.PCM16()
	have := got.PCM16()
	for i := range want {
		if d := int(want[i]) - int(have[i]); d < -1 || d > 1 {
			t.Fatalf("sample %d differs: %d vs %d", i, want[i], have[i])
		}
	}
}

func writeRawWAV(t *testing.T, sampleRate, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, 320*channels),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	f.Close()
	return path
}

func TestReadFile_RejectsNonCanonical(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
	}{
		{"stereo", 16000, 2},
		{"8 kHz", 8000, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadFile(writeRawWAV(t, tc.sampleRate, tc.channels))
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeInvalidAudio {
				t.Errorf("expected INVALID_AUDIO, got %v", err)
			}
		})
	}
}

func TestDecode_NotWAV(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not riff data")))
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
