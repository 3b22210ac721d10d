package vad

import (
	"fmt"
	"math"
)

// Mode is a detector aggressiveness level. Higher modes reject more frames.
type Mode int

const (
	ModeQuality Mode = iota
	ModeLowBitrate
	ModeAggressive
	ModeVeryAggressive
)

// DefaultMode is the aggressiveness used by the segmenter.
const DefaultMode = ModeAggressive

// Detector classifies one PCM16 frame as speech or non-speech.
// Implementations must be safe for concurrent use.
type Detector interface {
	IsSpeech(frame []int16, sampleRate int) (bool, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(frame []int16, sampleRate int) (bool, error)

// IsSpeech calls f.
func (f DetectorFunc) IsSpeech(frame []int16, sampleRate int) (bool, error) {
	return f(frame, sampleRate)
}

type threshold struct {
	floorDBFS float64
	maxZCR    float64
}

var thresholds = map[Mode]threshold{
	ModeQuality:        {floorDBFS: -55, maxZCR: 0.50},
	ModeLowBitrate:     {floorDBFS: -50, maxZCR: 0.45},
	ModeAggressive:     {floorDBFS: -45, maxZCR: 0.40},
	ModeVeryAggressive: {floorDBFS: -40, maxZCR: 0.35},
}

var (
	supportedRates     = []int{8000, 16000, 32000, 48000}
	supportedFrameMsec = []int{10, 20, 30}
)

// EnergyDetector is a stateless energy and zero-crossing classifier.
type EnergyDetector struct {
	mode Mode
	th   threshold
}

// NewEnergyDetector returns a detector for the given mode (0..3).
func NewEnergyDetector(mode Mode) (*EnergyDetector, error) {
	th, ok := thresholds[mode]
	if !ok {
		return nil, fmt.Errorf("invalid vad mode %d: must be 0..3", mode)
	}
	return &EnergyDetector{mode: mode, th: th}, nil
}

// Mode returns the configured aggressiveness.
func (d *EnergyDetector) Mode() Mode { return d.mode }

func (d *EnergyDetector) String() string { return fmt.Sprintf("energy/mode%d", d.mode) }

// IsSpeech reports whether frame holds speech. The frame must be 10, 20 or
// 30 ms long at 8, 16, 32 or 48 kHz.
func (d *EnergyDetector) IsSpeech(frame []int16, sampleRate int) (bool, error) {
	if err := ValidFrame(len(frame), sampleRate); err != nil {
		return false, err
	}
	if LevelDBFS(frame) < d.th.floorDBFS {
		return false, nil
	}
	return ZeroCrossingRate(frame) <= d.th.maxZCR, nil
}

// ValidFrame checks a frame length and sample rate combination.
func ValidFrame(n, sampleRate int) error {
	rateOK := false
	for _, r := range supportedRates {
		if r == sampleRate {
			rateOK = true
			break
		}
	}
	if !rateOK {
		return fmt.Errorf("unsupported sample rate %d Hz", sampleRate)
	}
	for _, ms := range supportedFrameMsec {
		if n == sampleRate*ms/1000 {
			return nil
		}
	}
	return fmt.Errorf("unsupported frame of %d samples at %d Hz", n, sampleRate)
}

// LevelDBFS returns the RMS level of frame relative to full scale.
// Silence yields -Inf.
func LevelDBFS(frame []int16) float64 {
	if len(frame) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range frame {
		v := float64(s) / 32768
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(frame)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// ZeroCrossingRate returns the fraction of adjacent sample pairs whose sign differs.
func ZeroCrossingRate(frame []int16) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}
