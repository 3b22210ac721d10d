// Package source retrieves input audio and turns it into canonical WAV.
//
// A Fetcher copies a remote or local recording into a Workspace, a
// Converter resamples it to mono 16 kHz with ffmpeg, and audio.ReadFile
// loads the result. The Workspace owns every intermediate file and removes
// them all on Close.
package source
