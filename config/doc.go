// Package config loads a binary's settings from a YAML file, an optional
// .env file and the process environment using Viper.
//
// Environment variables beat file values, which beat WithDefault values.
// Nested keys use their underscore form, so PIPELINE_NUM_SPEAKERS sets
// pipeline.num_speakers.
//
//	var cfg Config
//	var src config.Sources
//	err := config.LoadConfig("diarize", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithSources(&src))
package config
