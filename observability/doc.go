// Package observability carries OpenTelemetry tracing and metrics for
// diarization runs, plus the health model reported by `diarize health`.
//
// Export is configured once per process:
//
//	tel, err := observability.Setup(ctx, cfg.Telemetry, "diarize", "production", log)
//	defer tel.Shutdown(ctx)
//
// Pipeline stages open a span and record their duration:
//
//	metrics, err := observability.NewStageMetrics(observability.Meter(observability.TracerName))
//	ctx, stage := observability.StartStage(ctx, nil, metrics, "segmentation")
//	segments, err := segmenter.Segment(buf, log)
//	stage.End(ctx, err)
//
// Health:
//
//	sh := observability.NewServiceHealth("diarize", version.Short())
//	sh.AddComponent(worker.CheckHealth(ctx))
//	sh.AddOptional(cache.CheckHealth(ctx))
package observability
