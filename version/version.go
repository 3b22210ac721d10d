// Package version exposes build metadata stamped in with -ldflags, falling
// back to the VCS settings the Go toolchain embeds in the binary.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/kbukum/speakerkit/version.Version=1.4.0"
var (
	Version   = "dev"
	Commit    = ""
	Branch    = ""
	BuildTime = ""
)

const shortCommit = 7

// Info is the build description printed by `diarize version` and reported
// on health checks.
type Info struct {
	Version   string    `json:"version" yaml:"version"`
	Commit    string    `json:"commit,omitempty" yaml:"commit,omitempty"`
	Branch    string    `json:"branch,omitempty" yaml:"branch,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitzero" yaml:"built_at,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Dirty     bool      `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// Release reports whether the build carries a tagged, clean version.
func (i Info) Release() bool {
	return i.Version != "dev" && !i.Dirty && !strings.HasSuffix(i.Version, "-dirty")
}

var (
	vcsOnce sync.Once
	vcs     debug.BuildInfo
)

func buildSettings() debug.BuildInfo {
	vcsOnce.Do(func() {
		if bi, ok := debug.ReadBuildInfo(); ok {
			vcs = *bi
		}
	})
	return vcs
}

// Get assembles Info from the linker variables and embedded build settings.
// Linker values win over VCS settings.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuiltAt = t.UTC()
		}
	}

	for _, s := range buildSettings().Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuiltAt.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuiltAt = t.UTC()
				}
			}
		}
	}
	if len(info.Commit) > shortCommit {
		info.Commit = info.Commit[:shortCommit]
	}
	return info
}

// Short renders "<version>[-<commit>][-dirty]".
func Short() string {
	return Get().short()
}

func (i Info) short() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Dirty && !strings.HasSuffix(s, "-dirty") {
		s += "-dirty"
	}
	return s
}

// String renders the short form plus the branch when it is not a trunk
// branch, and the build time when known.
func (i Info) String() string {
	s := i.short()
	switch i.Branch {
	case "", "main", "master":
	default:
		s += " (" + i.Branch + ")"
	}
	if !i.BuiltAt.IsZero() {
		s += " built " + i.BuiltAt.Format(time.RFC3339)
	}
	return s + " " + i.GoVersion + " " + i.Platform
}

// UserAgent is sent on every outbound HTTP call.
func UserAgent() string {
	return "speakerkit/" + Short()
}
