// Package version provides build version information for the diarize
// binary and the User-Agent of its HTTP clients.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/speakerkit/version.Version=1.0.0" ./cmd/diarize
package version
