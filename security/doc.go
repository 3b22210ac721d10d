// Package security builds client TLS settings for the HTTP collaborators
// (remote diarization worker, embedding sidecar, audio downloads).
//
//	tls := security.TLSConfig{CAFile: "/etc/speakerkit/worker-ca.pem"}
//	cfg, err := tls.Build()
package security
