// Package resilience provides the fault-tolerance patterns used around
// diarization backends.
//
//   - Bulkhead: bounds concurrent pipeline runs in the local provider
//   - CircuitBreaker: fails fast while a remote worker is unhealthy
//   - Retry: re-attempts retryable source downloads with backoff
//
// Patterns compose:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "local", MaxConcurrent: 2})
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("remote"))
//
//	err := cb.Execute(func() error {
//	    return bh.Execute(ctx, func() error {
//	        return worker.Diarize(ctx, req)
//	    })
//	})
package resilience
