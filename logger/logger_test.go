package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewWithWriter(&Config{Level: level, Format: "json"}, "diarize", &buf), &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var out map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &out); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return out
}

func TestJSONLine(t *testing.T) {
	l, buf := jsonLogger(t, "info")
	l.Info("segments detected", Fields("count", 3), Fields("backend", "local"))

	out := lastLine(t, buf)
	want := map[string]any{
		"message":    "segments detected",
		"level":      "info",
		FieldService: "diarize",
		"count":      float64(3),
		"backend":    "local",
	}
	for k, v := range want {
		if out[k] != v {
			t.Errorf("%s = %v, want %v", k, out[k], v)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		log   func(l *Logger)
		kept  bool
	}{
		{"warn", func(l *Logger) { l.Info("x") }, false},
		{"warn", func(l *Logger) { l.Debug("x") }, false},
		{"warn", func(l *Logger) { l.Warn("x") }, true},
		{"debug", func(l *Logger) { l.Debug("x") }, true},
		{"disabled", func(l *Logger) { l.Error("x") }, false},
		{"bogus", func(l *Logger) { l.Info("x") }, true},
		{"bogus", func(l *Logger) { l.Debug("x") }, false},
	}
	for _, tc := range tests {
		l, buf := jsonLogger(t, tc.level)
		tc.log(l)
		if got := buf.Len() > 0; got != tc.kept {
			t.Errorf("level %s: kept = %v, want %v", tc.level, got, tc.kept)
		}
	}
}

func TestDerivedLoggers(t *testing.T) {
	l, buf := jsonLogger(t, "info")
	l.WithRun("run-42").
		WithComponent("vad").
		WithFields(map[string]any{"location": "a.wav"}).
		WithError(errors.New("no speech")).
		Warn("done")

	out := lastLine(t, buf)
	if out[FieldRunID] != "run-42" || out[FieldComponent] != "vad" {
		t.Errorf("missing run or component: %v", out)
	}
	if out["location"] != "a.wav" || out[FieldError] != "no speech" {
		t.Errorf("missing fields or error: %v", out)
	}

	l.Info("parent")
	out = lastLine(t, buf)
	if _, ok := out[FieldRunID]; ok {
		t.Error("parent logger must not carry the child's run_id")
	}
}

func TestWithContext(t *testing.T) {
	l, buf := jsonLogger(t, "info")

	if got := l.WithContext(context.Background()); got != l {
		t.Error("a context without a span must return the same logger")
	}

	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.WithContext(ctx).Info("fetched")
	out := lastLine(t, buf)
	if out[FieldTraceID] != tid.String() || out[FieldSpanID] != sid.String() {
		t.Errorf("expected trace and span IDs, got %v", out)
	}
}

func TestNopAndOrNop(t *testing.T) {
	Nop().Error("discarded", Fields("k", "v"))
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) must return a usable logger")
	}
	l := NewDefault("diarize")
	if OrNop(l) != l {
		t.Error("OrNop must return the given logger")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	l := NewFromEnv("diarize")
	if l.service != "diarize" {
		t.Errorf("expected service diarize, got %q", l.service)
	}
	if l.zl.GetLevel().String() != "error" {
		t.Errorf("expected error level, got %s", l.zl.GetLevel())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "diarize", &buf)
	l.Info("hello", Fields("speakers", 2))

	s := buf.String()
	if !strings.Contains(s, "[DIA][INF]") {
		t.Errorf("expected service and level tags, got %q", s)
	}
	if !strings.Contains(s, "speakers:2") {
		t.Errorf("expected key:value field, got %q", s)
	}
	if strings.Contains(s, "service:") {
		t.Errorf("service field is carried by the tag, got %q", s)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" || !cfg.Timestamp {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"json", Config{Level: "info", Format: "json"}, false},
		{"console stdout", Config{Level: "debug", Format: "console", Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "/var/log/x"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		kvs  []any
		want int
	}{
		{"pairs", []any{"a", 1, "b", 2}, 2},
		{"trailing key dropped", []any{"a", 1, "b"}, 1},
		{"non-string key skipped", []any{1, "x", "b", 2}, 1},
		{"empty", nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fields(tc.kvs...); len(got) != tc.want {
				t.Errorf("expected %d fields, got %v", tc.want, got)
			}
		})
	}

	e := ErrorFields("fetch", errors.New("timeout"))
	if e[FieldOperation] != "fetch" || e[FieldError] != "timeout" {
		t.Errorf("unexpected error fields: %v", e)
	}
	d := DurationFields("convert", 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", d[FieldDuration])
	}
}
