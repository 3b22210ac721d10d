package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// THelper ties test resources to a testing.T.
type THelper struct {
	t *testing.T
}

// T wraps a testing.T.
func T(t *testing.T) *THelper {
	t.Helper()
	return &THelper{t: t}
}

// MiniRedis starts an in-memory Redis server that is closed when the test ends.
func (h *THelper) MiniRedis() *miniredis.Miniredis {
	h.t.Helper()
	return miniredis.RunT(h.t)
}

// Context returns a context cancelled after d or when the test ends.
func (h *THelper) Context(d time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	h.t.Cleanup(cancel)
	return ctx
}

// Close registers c to be closed when the test ends. A close error fails the test.
func (h *THelper) Close(c io.Closer) {
	h.t.Cleanup(func() {
		if err := c.Close(); err != nil {
			h.t.Errorf("close failed: %v", err)
		}
	})
}
