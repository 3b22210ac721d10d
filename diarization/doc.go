// Package diarization runs the speaker diarization pipeline and defines the
// provider interface for backends that serve it.
//
// The pipeline is linear and fail-fast:
//
//	vad.Segmenter -> embedding.Extractor -> cluster.Clusterer -> confidence.Estimator
//
// Each stage runs inside its own span and is recorded in stage metrics.
// A buffer with no detected speech is a valid, empty result.
//
// # Backends
//
//   - diarization/local: fetch, convert and decode a location, then run the pipeline in-process
//   - diarization/remote: call a worker exposing POST /diarize and GET /health
//
// Backends are registered with provider.Manager and selected at runtime.
//
// # Usage
//
//	p, err := diarization.NewPipeline(diarization.DefaultConfig())
//	result, err := p.Run(ctx, buf, log)
package diarization
