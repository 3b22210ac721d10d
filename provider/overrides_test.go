package provider

import (
	"testing"
	"time"

	apperrors "github.com/kbukum/speakerkit/errors"
)

type target struct {
	workers int
	timeout time.Duration
	dir     string
	local   bool
}

func (t *target) fields() map[string]any {
	return map[string]any{
		"workers": &t.workers,
		"timeout": &t.timeout,
		"dir":     &t.dir,
		"local":   &t.local,
	}
}

func TestOverrides_Into(t *testing.T) {
	tests := []struct {
		name string
		in   Overrides
		want target
	}{
		{"typed", Overrides{"workers": 3, "timeout": time.Minute, "dir": "/tmp", "local": true}, target{3, time.Minute, "/tmp", true}},
		{"decoded", Overrides{"workers": float64(4), "timeout": "30s", "dir": "/var/tmp", "local": "true"}, target{4, 30 * time.Second, "/var/tmp", true}},
		{"numeric string", Overrides{"workers": "2"}, target{workers: 2, timeout: time.Hour}},
		{"absent keeps base", Overrides{}, target{workers: 1, timeout: time.Hour}},
		{"nil keeps base", Overrides{"workers": nil}, target{workers: 1, timeout: time.Hour}},
		{"unknown keys ignored", Overrides{"color": "blue"}, target{workers: 1, timeout: time.Hour}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := target{workers: 1, timeout: time.Hour}
			if err := tc.in.Into(got.fields()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestOverrides_IntoInvalid(t *testing.T) {
	tests := []struct {
		name  string
		in    Overrides
		field string
	}{
		{"bad duration", Overrides{"timeout": "soon"}, "timeout"},
		{"bad int", Overrides{"workers": "many"}, "workers"},
		{"bad bool", Overrides{"local": "perhaps"}, "local"},
		{"first in key order", Overrides{"workers": "many", "dir": []int{1}}, "dir"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got target
			err := tc.in.Into(got.fields())
			appErr, ok := apperrors.AsAppError(err)
			if !ok || appErr.Code != apperrors.ErrCodeInvalidInput {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if appErr.Details["field"] != tc.field {
				t.Errorf("expected field %q, got %v", tc.field, appErr.Details)
			}
		})
	}
}

func TestOverrides_UnsupportedTarget(t *testing.T) {
	var f float64
	if err := (Overrides{"ratio": 0.5}).Into(map[string]any{"ratio": &f}); err == nil {
		t.Error("expected an error for an unsupported target type")
	}
}
