// Package version reports paylink build metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build metadata, set with -ldflags "-X github.com/mrz1836/paylink/internal/version.version=...".
//
//nolint:gochecknoglobals // ldflags targets must be package variables
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata, falling back to module and VCS info
// recorded by the Go toolchain when ldflags were not set.
func Get() BuildInfo {
	info := BuildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return fillFromBuildInfo(info, bi)
}

func fillFromBuildInfo(info BuildInfo, bi *debug.BuildInfo) BuildInfo {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && info.Commit != "" && !strings.HasSuffix(info.Commit, "-dirty") {
				info.Commit += "-dirty"
			}
		}
	}
	return info
}

// String formats the build info for `paylink version`.
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "paylink %s", b.Version)
	if b.Commit != "" {
		fmt.Fprintf(&sb, " (%s", shortCommit(b.Commit))
		if b.Date != "" {
			fmt.Fprintf(&sb, ", %s", b.Date)
		}
		sb.WriteString(")")
	}
	fmt.Fprintf(&sb, " %s %s", b.GoVersion, b.Platform)
	return sb.String()
}

// UserAgent is sent on outbound callback and payment-link requests.
func UserAgent() string {
	return fmt.Sprintf("paylink/%s (%s/%s)", strings.TrimPrefix(version, "v"), runtime.GOOS, runtime.GOARCH)
}

func shortCommit(c string) string {
	dirty := strings.HasSuffix(c, "-dirty")
	c = strings.TrimSuffix(c, "-dirty")
	if len(c) > 7 {
		c = c[:7]
	}
	if dirty {
		c += "-dirty"
	}
	return c
}
