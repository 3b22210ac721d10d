package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/speakerkit/errors"
)

func TestFields_Checks(t *testing.T) {
	tests := []struct {
		name    string
		run     func(f *Fields)
		wantErr bool
	}{
		{"required set", func(f *Fields) { f.Required("fileUrl", "a.wav") }, false},
		{"required empty", func(f *Fields) { f.Required("fileUrl", "") }, true},
		{"required blank", func(f *Fields) { f.Required("fileUrl", "   ") }, true},
		{"max length ok", func(f *Fields) { f.MaxLength("languageHint", "en", 35) }, false},
		{"max length over", func(f *Fields) { f.MaxLength("languageHint", "conference", 5) }, true},
		{"between ok", func(f *Fields) { f.Between("numSpeakers", 2, 1, 8) }, false},
		{"between low", func(f *Fields) { f.Between("numSpeakers", 0, 1, 8) }, true},
		{"between high", func(f *Fields) { f.Between("numSpeakers", 9, 1, 8) }, true},
		{"one of ok", func(f *Fields) { f.OneOf("backend", "local", "local", "remote") }, false},
		{"one of unknown", func(f *Fields) { f.OneOf("backend", "gpu", "local", "remote") }, true},
		{"one of empty skipped", func(f *Fields) { f.OneOf("backend", "", "local") }, false},
		{"check passes", func(f *Fields) { f.Check(true, "x", "never") }, false},
		{"check fails", func(f *Fields) { f.Check(false, "x", "broken") }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := New()
			tc.run(f)
			if got := !f.Empty(); got != tc.wantErr {
				t.Errorf("errors = %v, wantErr %v", f.List(), tc.wantErr)
			}
		})
	}
}

func TestFields_Location(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"https url", "https://cdn.example.com/call.mp3", false},
		{"http url", "http://localhost:8080/a.wav", false},
		{"file url", "file://localhost/tmp/a.wav", false},
		{"local path", "/tmp/call.wav", false},
		{"relative path", "testdata/a.wav", false},
		{"empty skipped", "", false},
		{"ftp scheme", "ftp://example.com/a.wav", true},
		{"missing host", "https://", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := New().Location("fileUrl", tc.value)
			if f.Empty() == tc.wantErr {
				t.Errorf("Location(%q) errors = %v, wantErr %v", tc.value, f.List(), tc.wantErr)
			}
		})
	}
}

func TestFields_Err(t *testing.T) {
	var zero Fields
	if err := zero.Required("fileUrl", "a.wav").Err(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	err := New().Required("fileUrl", "").OneOf("backend", "gpu", "local").Err()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	want := "fileUrl: is required; backend: must be one of: local"
	if appErr.Message != want {
		t.Errorf("expected %q, got %q", want, appErr.Message)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	if len(fields) != 2 || fields[0].Field != "fileUrl" || fields[1].Field != "backend" {
		t.Errorf("unexpected field details: %v", appErr.Details["fields"])
	}
}

type workerConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Secret  string        `yaml:"-" validate:"-"`
}

type testConfig struct {
	Backend string       `yaml:"backend" validate:"required,oneof=local remote auto"`
	Workers int          `json:"workers" validate:"gte=1"`
	Remote  workerConfig `yaml:"remote"`
}

func validConfig() testConfig {
	return testConfig{
		Backend: "local",
		Workers: 4,
		Remote:  workerConfig{BaseURL: "http://worker:8000", Timeout: time.Minute},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *testConfig)
		wantMsg string
	}{
		{"missing backend", func(c *testConfig) { c.Backend = "" }, "backend: is required"},
		{"unknown backend", func(c *testConfig) { c.Backend = "gpu" }, "backend: must be one of: local, remote, auto"},
		{"zero workers", func(c *testConfig) { c.Workers = 0 }, "workers: must be at least 1"},
		{"nested url", func(c *testConfig) { c.Remote.BaseURL = "worker" }, "remote.base_url: must be a valid URL"},
		{"mapstructure key", func(c *testConfig) { c.Remote.Timeout = 0 }, "remote.timeout: must be greater than 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Validate(cfg)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if !strings.Contains(appErr.Message, tc.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tc.wantMsg, appErr.Message)
			}
			if _, ok := appErr.Details["fields"]; !ok {
				t.Error("expected per-field details")
			}
		})
	}
}

func TestValidate_NotAStruct(t *testing.T) {
	err := Validate(42)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
