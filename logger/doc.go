// Package logger is structured logging on zerolog.
//
// There is no process-wide logger. A binary builds one Logger from its
// Config and hands it to components, which accept nil and fall back to Nop.
// Each diarization run derives a child tagged with its run ID, and
// WithContext adds the active trace and span IDs.
//
//	logging:
//	  level: info
//	  format: json
//
//	log := logger.New(&cfg.Logging, "diarize").WithRun(runID)
//	log.Info("clustered", logger.Fields("speakers", 2))
package logger
