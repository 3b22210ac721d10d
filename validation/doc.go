// Package validation rejects bad configuration and diarization requests with
// INVALID_INPUT AppErrors that list every offending field.
//
// Config structs declare their rules in `validate` tags and call Validate:
//
//	type Config struct {
//	    Backend string `yaml:"backend" validate:"oneof=local remote auto"`
//	    Workers int    `yaml:"workers" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Request types chain checks on a Fields collector:
//
//	err := validation.New().
//	    Required("fileUrl", req.FileURL).
//	    Location("fileUrl", req.FileURL).
//	    Err()
package validation
