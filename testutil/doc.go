// Package testutil provides synthetic fixtures and lifecycle helpers for
// tests across the toolkit.
//
// Signal generators build float32 sample slices (tones, silence, noise and
// frame-level speech patterns) and vector generators build labelled
// Gaussian clusters. Nothing here imports toolkit packages, so any test
// package can depend on it.
//
// Lifecycle helpers tie resources to the test:
//
//	func TestCache(t *testing.T) {
//	    mr := testutil.T(t).MiniRedis()
//	    ctx := testutil.T(t).Context(time.Second)
//	    // both are released when the test ends
//	}
package testutil
