// Package httpclient is the outbound HTTP transport shared by audio
// downloads, the remote diarization worker and the embedding sidecar.
//
// A Client carries a base URL, a per-attempt timeout, an optional bearer
// token, a response size cap and optional retry and circuit breaker
// policies. Failed calls return *Error values whose Kind says what went
// wrong; ToAppError maps them onto the toolkit's error codes.
//
//	c, _ := httpclient.New(httpclient.Config{
//	    BaseURL:        "http://worker:8000",
//	    Timeout:        5 * time.Minute,
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("worker"),
//	})
//	res, err := httpclient.PostJSON[diarization.Result](ctx, c, "/diarize", req)
package httpclient
