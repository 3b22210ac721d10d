package remote

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/security"
)

func newWorker(t *testing.T, diarize http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"audio-diarization-worker"}`))
	})
	mux.HandleFunc("/diarize", diarize)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(t *testing.T, cfg Config) *Provider {
	t.Helper()
	p, err := NewProvider(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) *errors.AppError {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError %s, got %v", code, err)
	}
	if appErr.Code != code {
		t.Errorf("expected %s, got %s", code, appErr.Code)
	}
	return appErr
}

func TestProvider_Diarize(t *testing.T) {
	var got diarization.DiarizationRequest
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"diarizedSegments": [
				{"start": 0.3, "end": 1.2, "speaker": "Speaker 1", "text": ""},
				{"start": 1.8, "end": 3.0, "speaker": "Speaker 2", "text": ""}
			],
			"speakerCount": 2,
			"confidence": 0.71,
			"debug": {"speech_segments_count": 2}
		}`))
	})
	p := newProvider(t, Config{BaseURL: srv.URL})

	res, err := p.Diarize(context.Background(), diarization.DiarizationRequest{
		FileURL:      "https://example.com/call.mp3",
		LanguageHint: "en",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FileURL != "https://example.com/call.mp3" || got.LanguageHint != "en" {
		t.Errorf("worker received %+v", got)
	}
	if res.SpeakerCount != 2 || len(res.DiarizedSegments) != 2 || res.Confidence != 0.71 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.DiarizedSegments[1].Speaker != "Speaker 2" {
		t.Errorf("unexpected speaker %q", res.DiarizedSegments[1].Speaker)
	}
}

func TestProvider_DiarizeEmpty(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"speakerCount":0,"confidence":0,"debug":{"message":"No speech detected"}}`))
	})
	res, err := newProvider(t, Config{BaseURL: srv.URL}).Diarize(context.Background(),
		diarization.DiarizationRequest{FileURL: "https://example.com/quiet.wav"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DiarizedSegments == nil || len(res.DiarizedSegments) != 0 {
		t.Errorf("expected empty non-nil segments, got %v", res.DiarizedSegments)
	}
	if res.Debug[diarization.DebugMessage] != diarization.NoSpeechMessage {
		t.Errorf("unexpected debug %v", res.Debug)
	}
}

func TestProvider_DiarizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.ErrorCode
	}{
		{"worker failure", http.StatusInternalServerError, `{"detail":"Speech detection failed"}`, errors.ErrCodeExternalService},
		{"download failure", http.StatusBadRequest, `{"detail":"Failed to download audio file"}`, errors.ErrCodeExternalService},
		{"bad gateway", http.StatusBadGateway, `oops`, errors.ErrCodeExternalService},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := newProvider(t, Config{BaseURL: srv.URL}).Diarize(context.Background(),
				diarization.DiarizationRequest{FileURL: "https://example.com/a.wav"})
			appErr := requireCode(t, err, tc.code)
			if appErr.Details["status"] != tc.status {
				t.Errorf("expected status detail %d, got %v", tc.status, appErr.Details["status"])
			}
			if appErr.Details["body"] != tc.body {
				t.Errorf("expected body detail %q, got %v", tc.body, appErr.Details["body"])
			}
		})
	}
}

func TestProvider_InvalidRequest(t *testing.T) {
	var calls atomic.Int32
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	_, err := newProvider(t, Config{BaseURL: srv.URL}).Diarize(context.Background(), diarization.DiarizationRequest{})
	requireCode(t, err, errors.ErrCodeInvalidInput)
	if calls.Load() != 0 {
		t.Error("invalid request must not reach the worker")
	}
}

func TestProvider_Timeout(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	_, err := newProvider(t, Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).Diarize(context.Background(),
		diarization.DiarizationRequest{FileURL: "https://example.com/a.wav"})
	requireCode(t, err, errors.ErrCodeTimeout)
}

func TestProvider_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	p := newProvider(t, Config{BaseURL: srv.URL})
	req := diarization.DiarizationRequest{FileURL: "https://example.com/a.wav"}

	for i := 0; i < 5; i++ {
		_, _ = p.Diarize(context.Background(), req)
	}
	_, err := p.Diarize(context.Background(), req)
	requireCode(t, err, errors.ErrCodeServiceUnavailable)
	if calls.Load() != 5 {
		t.Errorf("expected 5 calls before the circuit opened, got %d", calls.Load())
	}
	if p.IsAvailable(context.Background()) {
		t.Error("provider with an open circuit must not be available")
	}
}

func TestProvider_Retry(t *testing.T) {
	var calls atomic.Int32
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"diarizedSegments":[],"speakerCount":0,"confidence":0}`))
	})
	p := newProvider(t, Config{BaseURL: srv.URL, MaxAttempts: 2})
	if _, err := p.Diarize(context.Background(), diarization.DiarizationRequest{FileURL: "https://example.com/a.wav"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestProvider_APIKey(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		_, _ = w.Write([]byte(`{"diarizedSegments":[],"speakerCount":0,"confidence":0}`))
	})
	p := newProvider(t, Config{BaseURL: srv.URL, APIKey: "secret"})
	if _, err := p.Diarize(context.Background(), diarization.DiarizationRequest{FileURL: "https://example.com/a.wav"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProvider_CheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    observability.HealthStatus
	}{
		{
			name: "healthy",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"healthy","service":"audio-diarization-worker"}`))
			},
			want: observability.HealthStatusUp,
		},
		{
			name: "degraded",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"starting"}`))
			},
			want: observability.HealthStatusDegraded,
		},
		{
			name: "down",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: observability.HealthStatusDown,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			p := newProvider(t, Config{BaseURL: srv.URL})

			h := p.CheckHealth(context.Background())
			if h.Status != tc.want {
				t.Errorf("expected %s, got %s (%s)", tc.want, h.Status, h.Message)
			}
			if h.Details["url"] != srv.URL || h.Details["circuit"] != "closed" {
				t.Errorf("unexpected details %v", h.Details)
			}
			if got := p.IsAvailable(context.Background()); got != (tc.want == observability.HealthStatusUp) {
				t.Errorf("unexpected IsAvailable %v", got)
			}
		})
	}
}

func TestProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := newProvider(t, Config{BaseURL: url})
	if p.IsAvailable(context.Background()) {
		t.Error("unreachable worker must not be available")
	}
	_, err := p.Diarize(context.Background(), diarization.DiarizationRequest{FileURL: "https://example.com/a.wav"})
	requireCode(t, err, errors.ErrCodeServiceUnavailable)
}

func TestFactory(t *testing.T) {
	p, err := Factory(Config{APIKey: "k"}, nil)(map[string]any{
		"base_url":     "http://worker:8000",
		"timeout":      time.Minute,
		"max_attempts": 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rp := p.(*Provider)
	if p.Name() != ProviderName || rp.cfg.BaseURL != "http://worker:8000" || rp.cfg.Timeout != time.Minute || rp.cfg.MaxAttempts != 3 || rp.cfg.APIKey != "k" {
		t.Errorf("unexpected provider %+v", rp.cfg)
	}

	if _, err := Factory(Config{}, nil)(map[string]any{"base_url": "not a url"}); err == nil {
		t.Error("expected invalid base url to be rejected")
	}

	p, err = Factory(Config{}, nil)(map[string]any{"timeout": "45s", "max_attempts": float64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp := p.(*Provider); rp.cfg.Timeout != 45*time.Second || rp.cfg.MaxAttempts != 2 {
		t.Errorf("expected decoded overrides, got %+v", rp.cfg)
	}
	_, err = Factory(Config{}, nil)(map[string]any{"max_attempts": "twice"})
	requireCode(t, err, errors.ErrCodeInvalidInput)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.BaseURL != defaultURL || cfg.Timeout != defaultTimeout || cfg.MaxAttempts != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestProvider_TLSWorker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","service":"audio-diarization-worker"}`))
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "worker-ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, block, 0o600); err != nil {
		t.Fatalf("write ca: %v", err)
	}

	trusted := newProvider(t, Config{BaseURL: srv.URL, TLS: security.TLSConfig{CAFile: caFile}})
	if h := trusted.CheckHealth(context.Background()); h.Status != observability.HealthStatusUp {
		t.Errorf("expected up with trusted CA, got %s (%s)", h.Status, h.Message)
	}

	untrusted := newProvider(t, Config{BaseURL: srv.URL})
	if h := untrusted.CheckHealth(context.Background()); h.Status != observability.HealthStatusDown {
		t.Errorf("expected down without CA, got %s", h.Status)
	}

	if _, err := NewProvider(Config{BaseURL: srv.URL, TLS: security.TLSConfig{KeyFile: "k.pem"}}, nil); err == nil {
		t.Error("expected error for key without certificate")
	}
}
