package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Vector is a speaker embedding.
type Vector []float64

// Model embeds a slice of mono samples. Implementations must be safe for
// concurrent use.
type Model interface {
	Dimension() int
	Embed(ctx context.Context, samples []float32, sampleRate int) (Vector, error)
}

const (
	// SpectralDimension is the vector length of SpectralModel.
	SpectralDimension = 2 * melBands

	melBands  = 128
	fftSize   = 512
	windowSec = 0.025
	hopSec    = 0.010
	logFloor  = 1e-10
)

// SpectralModel computes log mel-band statistics. Window, filterbank and
// frame geometry are fixed at construction and read-only afterwards.
type SpectralModel struct {
	sampleRate int
	winLen     int
	hop        int
	window     []float64
	filters    [][]float64

	fftPool sync.Pool
}

// NewSpectralModel prepares the filterbank for sampleRate.
func NewSpectralModel(sampleRate int) (*SpectralModel, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	winLen := int(math.Round(windowSec * float64(sampleRate)))
	if winLen > fftSize {
		return nil, fmt.Errorf("%d Hz needs a %d-sample window, larger than the %d-point FFT", sampleRate, winLen, fftSize)
	}
	m := &SpectralModel{
		sampleRate: sampleRate,
		winLen:     winLen,
		hop:        int(math.Round(hopSec * float64(sampleRate))),
		window:     hann(winLen),
		filters:    melFilterbank(melBands, fftSize, sampleRate),
	}
	m.fftPool.New = func() any { return fourier.NewFFT(fftSize) }
	return m, nil
}

// Dimension returns SpectralDimension.
func (m *SpectralModel) Dimension() int { return SpectralDimension }

func (m *SpectralModel) String() string { return fmt.Sprintf("spectral/%dhz", m.sampleRate) }

// Embed returns the normalised mean and standard deviation of the log
// mel energies of samples. Input shorter than one window is zero-padded.
func (m *SpectralModel) Embed(ctx context.Context, samples []float32, sampleRate int) (Vector, error) {
	if sampleRate != m.sampleRate {
		return nil, fmt.Errorf("model built for %d Hz, got %d Hz", m.sampleRate, sampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples")
	}

	fft := m.fftPool.Get().(*fourier.FFT)
	defer m.fftPool.Put(fft)

	numFrames := 1
	if len(samples) > m.winLen {
		numFrames = 1 + (len(samples)-m.winLen)/m.hop
	}

	// bands[b][f] is the log energy of band b in frame f.
	bands := make([][]float64, melBands)
	for b := range bands {
		bands[b] = make([]float64, numFrames)
	}

	frame := make([]float64, fftSize)
	coeffs := make([]complex128, fftSize/2+1)
	power := make([]float64, fftSize/2+1)
	for f := 0; f < numFrames; f++ {
		if f%64 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		off := f * m.hop
		for i := range frame {
			frame[i] = 0
		}
		for i := 0; i < m.winLen && off+i < len(samples); i++ {
			frame[i] = float64(samples[off+i]) * m.window[i]
		}
		fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		for b, filter := range m.filters {
			bands[b][f] = math.Log(floats.Dot(filter, power) + logFloor)
		}
	}

	vec := make(Vector, SpectralDimension)
	for b := range bands {
		mean, std := stat.PopMeanStdDev(bands[b], nil)
		vec[b] = mean
		vec[melBands+b] = std
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func hzToMel(hz float64) float64  { return 2595 * math.Log10(1+hz/700) }
func melToHz(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

// melFilterbank builds triangular filters over the FFT bins. A filter too
// narrow to cover any bin is given its nearest bin.
func melFilterbank(bands, nfft, sampleRate int) [][]float64 {
	bins := nfft/2 + 1
	maxFreq := float64(sampleRate) / 2

	points := make([]float64, bands+2)
	top := hzToMel(maxFreq)
	for i := range points {
		points[i] = melToHz(top * float64(i) / float64(bands+1))
	}

	binHz := float64(sampleRate) / float64(nfft)
	filters := make([][]float64, bands)
	for b := range filters {
		lo, center, hi := points[b], points[b+1], points[b+2]
		f := make([]float64, bins)
		for k := range f {
			hz := float64(k) * binHz
			switch {
			case hz > lo && hz <= center:
				f[k] = (hz - lo) / (center - lo)
			case hz > center && hz < hi:
				f[k] = (hi - hz) / (hi - center)
			}
		}
		if floats.Sum(f) == 0 {
			k := int(math.Round(center / binHz))
			if k >= bins {
				k = bins - 1
			}
			f[k] = 1
		}
		filters[b] = f
	}
	return filters
}
