package testutil

import (
	"math"
	"math/rand"
)

// Tone returns a sine wave of the given frequency and peak amplitude.
func Tone(freq, amp, seconds float64, sampleRate int) []float32 {
	n := int(math.Round(seconds * float64(sampleRate)))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// Silence returns zero samples.
func Silence(seconds float64, sampleRate int) []float32 {
	return make([]float32, int(math.Round(seconds*float64(sampleRate))))
}

// Noise returns uniform white noise in [-amp, amp] from a fixed seed.
func Noise(amp, seconds float64, sampleRate int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	n := int(math.Round(seconds * float64(sampleRate)))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * (2*rng.Float64() - 1))
	}
	return out
}

// Concat joins sample slices in order.
func Concat(parts ...[]float32) []float32 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]float32, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// FramePattern renders one frame of tone for every true flag and one frame
// of silence for every false flag.
func FramePattern(flags []bool, frameSize, sampleRate int, freq float64) []float32 {
	out := make([]float32, 0, len(flags)*frameSize)
	for i, speech := range flags {
		for j := 0; j < frameSize; j++ {
			if !speech {
				out = append(out, 0)
				continue
			}
			k := i*frameSize + j
			out = append(out, float32(0.5*math.Sin(2*math.Pi*freq*float64(k)/float64(sampleRate))))
		}
	}
	return out
}

// Flags returns n flags with the closed ranges [from, to] set to true.
func Flags(n int, ranges ...[2]int) []bool {
	flags := make([]bool, n)
	for _, r := range ranges {
		for i := r[0]; i <= r[1] && i < n; i++ {
			if i >= 0 {
				flags[i] = true
			}
		}
	}
	return flags
}
