package source

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/process"
)

// Converter rewrites src as canonical mono 16 kHz WAV at dst.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// FFmpegConfig configures the ffmpeg converter.
type FFmpegConfig struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg" on PATH.
	Binary string `yaml:"binary" mapstructure:"binary"`
	// Timeout bounds one conversion. Zero means the caller's context only.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// GracePeriod is how long ffmpeg gets to exit after SIGTERM.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// FFmpeg converts audio with an ffmpeg subprocess.
type FFmpeg struct {
	cfg FFmpegConfig
	log *logger.Logger
}

// NewFFmpeg returns an ffmpeg converter.
func NewFFmpeg(cfg FFmpegConfig, log *logger.Logger) *FFmpeg {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	return &FFmpeg{cfg: cfg, log: logger.OrNop(log).WithComponent("convert")}
}

// Args returns the ffmpeg argument list for a conversion.
func Args(src, dst string) []string {
	return []string{
		"-i", src,
		"-ac", "1",
		"-ar", strconv.Itoa(audio.CanonicalSampleRate),
		"-f", "wav",
		dst,
		"-y",
	}
}

// Convert runs ffmpeg. A non-zero exit is CONVERSION_FAILED carrying the
// tail of ffmpeg's stderr.
func (f *FFmpeg) Convert(ctx context.Context, src, dst string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanConvert)
	defer span.End()

	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	res, err := process.Run(ctx, process.Command{
		Binary:      f.cfg.Binary,
		Args:        Args(src, dst),
		GracePeriod: f.cfg.GracePeriod,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tail := res.StderrTail(512)
		f.log.Error("ffmpeg failed", logger.Fields("error", err.Error(), "stderr", tail))
		return errors.ConversionFailed(err).WithDetail("stderr", tail)
	}
	f.log.Debug("converted", logger.DurationFields("convert", res.Duration))
	return nil
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	return process.Available(f.cfg.Binary)
}
