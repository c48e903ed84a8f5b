// Package version reports build metadata for the mediabridge binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Overridden with -ldflags "-X github.com/mediabridge/mediabridge/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

// Info is the build metadata printed by `mediabridge version`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

var readVCS sync.Once

// Get returns the build metadata, falling back to VCS stamps from the Go toolchain.
func Get() Info {
	readVCS.Do(func() {
		if CommitHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				CommitHash = setting.Value
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	})
	return Info{
		Version:   Version,
		Commit:    CommitHash,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// ShortCommit returns the first 7 characters of the commit hash.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

func (i Info) String() string {
	if c := i.ShortCommit(); c != "" {
		return fmt.Sprintf("%s (%s)", i.Version, c)
	}
	return i.Version
}

// GetInfo returns "version (commit)" for logs and health responses.
func GetInfo() string {
	return Get().String()
}
