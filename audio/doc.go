// Package audio holds the canonical in-memory representation of recorded
// speech: mono float32 samples in [-1, 1] at a fixed sample rate.
//
// Buffers are immutable once built. Constructors copy their input and
// accessors return copies, so a Buffer can be shared across goroutines.
//
// WAV input and output go through go-audio/wav:
//
//	buf, err := audio.ReadFile("call.wav") // mono 16 kHz 16-bit only
//	pcm := buf.PCM16()
package audio
