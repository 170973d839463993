// Package version reports the client's version and build target.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at link time with -ldflags "-X github.com/sekuso/asciinema/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = ""
)

// String returns the client version, falling back to module build info for
// `go install` builds that did not set Version.
func String() string {
	trimmed := strings.TrimSpace(Version)
	if trimmed != "" && trimmed != "dev" {
		return trimmed
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		v := strings.TrimSpace(info.Main.Version)
		if v != "" && v != "(devel)" {
			return strings.TrimPrefix(v, "v")
		}
	}
	return "dev"
}

// Target returns the build target as arch-os, e.g. amd64-linux.
func Target() string {
	return runtime.GOARCH + "-" + runtime.GOOS
}

// Long returns the version line printed by `asciinema version`.
func Long() string {
	extra := []string{Target()}
	if c := strings.TrimSpace(Commit); c != "" {
		extra = append(extra, c)
	}
	return fmt.Sprintf("asciinema %s (%s)", String(), strings.Join(extra, " "))
}
