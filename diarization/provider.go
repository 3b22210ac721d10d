package diarization

import (
	"context"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/provider"
)

// Provider is the interface that diarization backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Diarize resolves the request's audio and returns the diarized result.
	Diarize(ctx context.Context, req DiarizationRequest) (*Result, error)
}

// Runner diarizes an already decoded canonical buffer. Pipeline implements
// it; decorators such as the result cache wrap it.
type Runner interface {
	Run(ctx context.Context, buf *audio.Buffer, log *logger.Logger) (*Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, buf *audio.Buffer, log *logger.Logger) (*Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, buf *audio.Buffer, log *logger.Logger) (*Result, error) {
	return f(ctx, buf, log)
}
