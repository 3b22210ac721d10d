package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/kbukum/speakerkit/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}
}

func TestRetry_Outcomes(t *testing.T) {
	transient := errors.New("connection reset")
	tests := []struct {
		name      string
		attempts  int
		failFirst int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"first try", 3, 0, transient, 1, false},
		{"recovers", 3, 2, transient, 3, false},
		{"exhausted", 3, 5, transient, 3, true},
		{"single attempt", 1, 1, transient, 1, true},
		{"non-retryable stops", 3, 5, apperrors.InvalidAudio("8000 Hz"), 1, true},
		{"retryable app error", 3, 1, apperrors.FetchFailed("https://x/a.wav", nil), 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			got, err := Retry(context.Background(), fastRetry(tc.attempts), func() (string, error) {
				calls++
				if calls <= tc.failFirst {
					return "", tc.err
				}
				return "Speaker 1", nil
			})
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
			if tc.wantErr {
				if !errors.Is(err, tc.err) {
					t.Errorf("expected last error %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil || got != "Speaker 1" {
				t.Errorf("expected success, got (%q, %v)", got, err)
			}
		})
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Minute, MaxBackoff: time.Minute}
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	calls := 0
	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.New("worker busy")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_OnRetryAndDelayHint(t *testing.T) {
	var delays []time.Duration
	var attempts []int
	cfg := fastRetry(3)
	cfg.MaxBackoff = 50 * time.Millisecond
	cfg.DelayHint = func(err error) time.Duration {
		if err.Error() == "rate limited" {
			return 2 * time.Millisecond
		}
		return 0
	}
	cfg.OnRetry = func(attempt int, _ error, d time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, d)
	}

	calls := 0
	_, _ = Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("rate limited")
		}
		return 0, errors.New("server error")
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("expected OnRetry for attempts [1 2], got %v", attempts)
	}
	if delays[0] != 2*time.Millisecond {
		t.Errorf("expected hinted delay of 2ms, got %v", delays[0])
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("connection reset"), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{"retryable app error", apperrors.FetchFailed("https://x/a.wav", nil), true},
		{"non-retryable app error", apperrors.InvalidAudio("stereo"), false},
		{"wrapped non-retryable", fmt.Errorf("convert: %w", apperrors.ConversionFailed(nil)), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultRetryIf(tc.err); got != tc.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}
	cfg.DelayHint = func(err error) time.Duration {
		var d delayErr
		if errors.As(err, &d) {
			return time.Duration(d)
		}
		return 0
	}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"first backoff", 1, errors.New("x"), 100 * time.Millisecond},
		{"doubles", 3, errors.New("x"), 400 * time.Millisecond},
		{"capped", 6, errors.New("x"), time.Second},
		{"hint wins", 1, delayErr(300 * time.Millisecond), 300 * time.Millisecond},
		{"hint capped", 1, delayErr(time.Hour), time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.delay(tc.attempt, tc.err); got != tc.want {
				t.Errorf("delay(%d) = %v, want %v", tc.attempt, got, tc.want)
			}
		})
	}
}

func TestRetryConfig_JitterStaysInBand(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2, Jitter: 0.1}
	for range 50 {
		d := cfg.delay(1, errors.New("x"))
		if d < 90*time.Millisecond || d > 110*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±10%%", d)
		}
	}
}

type delayErr time.Duration

func (d delayErr) Error() string { return "retry after " + time.Duration(d).String() }
