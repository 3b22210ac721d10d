package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kbukum/speakerkit/errors"
)

const pcmBitDepth = 16

// Decode reads a WAV stream. Only mono, 16 kHz, 16-bit PCM is accepted;
// anything else is INVALID_AUDIO.
func Decode(r io.ReadSeeker) (*Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.InvalidAudio("not a valid WAV file")
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.InvalidAudio("unreadable PCM data").WithCause(err)
	}
	if pcm.Format == nil {
		return nil, errors.InvalidAudio("missing format chunk")
	}
	if pcm.Format.NumChannels != 1 {
		return nil, errors.InvalidAudio(fmt.Sprintf("expected mono, got %d channels", pcm.Format.NumChannels))
	}
	if pcm.Format.SampleRate != CanonicalSampleRate {
		return nil, errors.InvalidAudio(fmt.Sprintf("expected %d Hz, got %d Hz", CanonicalSampleRate, pcm.Format.SampleRate))
	}
	if int(d.BitDepth) != pcmBitDepth {
		return nil, errors.InvalidAudio(fmt.Sprintf("expected %d-bit PCM, got %d-bit", pcmBitDepth, d.BitDepth))
	}

	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float32(v) / 32768
	}
	return &Buffer{samples: samples, sampleRate: pcm.Format.SampleRate}, nil
}

// ReadFile opens and decodes a canonical WAV file.
func ReadFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InvalidInput("path", err.Error()).WithCause(err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the buffer as 16-bit mono PCM WAV.
func Encode(w io.WriteSeeker, b *Buffer) error {
	enc := wav.NewEncoder(w, b.sampleRate, pcmBitDepth, 1, 1)

	pcm := b.PCM16()
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: b.sampleRate},
		Data:           data,
		SourceBitDepth: pcmBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteFile encodes the buffer to a WAV file at path.
func WriteFile(path string, b *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := Encode(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
