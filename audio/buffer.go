package audio

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/kbukum/speakerkit/errors"
)

// CanonicalSampleRate is the rate every converted input is resampled to.
const CanonicalSampleRate = 16000

// Buffer is an immutable sequence of mono samples.
type Buffer struct {
	samples    []float32
	sampleRate int
}

// NewBuffer copies samples into a new Buffer.
func NewBuffer(samples []float32, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, errors.InvalidAudio(fmt.Sprintf("sample rate must be positive, got %d", sampleRate))
	}
	cp := make([]float32, len(samples))
	copy(cp, samples)
	return &Buffer{samples: cp, sampleRate: sampleRate}, nil
}

// FromPCM16 builds a Buffer from signed 16-bit samples.
func FromPCM16(pcm []int16, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, errors.InvalidAudio(fmt.Sprintf("sample rate must be positive, got %d", sampleRate))
	}
	samples := make([]float32, len(pcm))
	for i, v := range pcm {
		samples[i] = float32(v) / 32768
	}
	return &Buffer{samples: samples, sampleRate: sampleRate}, nil
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Len returns the number of samples.
func (b *Buffer) Len() int { return len(b.samples) }

// Seconds returns the buffer length in seconds.
func (b *Buffer) Seconds() float64 {
	return float64(len(b.samples)) / float64(b.sampleRate)
}

// Duration returns the buffer length as a time.Duration.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// Samples returns a copy of all samples.
func (b *Buffer) Samples() []float32 {
	cp := make([]float32, len(b.samples))
	copy(cp, b.samples)
	return cp
}

// Slice returns a copy of samples [start, end), clamped to the buffer.
// An empty or inverted range yields an empty slice.
func (b *Buffer) Slice(start, end int) []float32 {
	start = clamp(start, 0, len(b.samples))
	end = clamp(end, 0, len(b.samples))
	if end <= start {
		return []float32{}
	}
	cp := make([]float32, end-start)
	copy(cp, b.samples[start:end])
	return cp
}

// PCM16 converts the samples to signed 16-bit integers, clipping to range.
func (b *Buffer) PCM16() []int16 {
	return ToPCM16(b.samples)
}

// PCM16Bytes returns the samples as little-endian 16-bit PCM.
func (b *Buffer) PCM16Bytes() []byte {
	return PCM16Bytes(b.samples)
}

// Fingerprint returns the hex SHA-256 of the sample rate and PCM16 payload.
// Identical audio always yields the same fingerprint.
func (b *Buffer) Fingerprint() string {
	h := sha256.New()
	var rate [4]byte
	binary.LittleEndian.PutUint32(rate[:], uint32(b.sampleRate))
	h.Write(rate[:])
	h.Write(b.PCM16Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

// RequireRate returns INVALID_AUDIO unless the buffer is at the given rate.
func (b *Buffer) RequireRate(sampleRate int) error {
	if b.sampleRate != sampleRate {
		return errors.InvalidAudio(fmt.Sprintf("expected %d Hz, got %d Hz", sampleRate, b.sampleRate))
	}
	return nil
}

// ToPCM16 converts float samples in [-1, 1] to int16, clipping out-of-range values.
func ToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		f := float64(v)
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		out[i] = int16(math.Round(f * 32767))
	}
	return out
}

// PCM16Bytes encodes float samples as little-endian 16-bit PCM.
func PCM16Bytes(samples []float32) []byte {
	pcm := ToPCM16(samples)
	out := make([]byte, 2*len(pcm))
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
