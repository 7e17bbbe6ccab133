// Package buildinfo reports the version of the running binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// These values are injected via ldflags for release binaries.
// They default to empty for local/dev builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// DefaultModulePath is reported when the binary carries no module information.
const DefaultModulePath = "github.com/uncaged-coder/vcardtools"

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
}

var readBuildInfo = debug.ReadBuildInfo

// Current combines the module build information with the ldflags values,
// which only fill what the build information leaves empty.
func Current() Info {
	info := Info{
		Version:    "devel",
		ModulePath: DefaultModulePath,
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok && bi != nil {
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalizeVersion(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if v := settings["GOOS"]; v != "" {
			info.GOOS = v
		}
		if v := settings["GOARCH"]; v != "" {
			info.GOARCH = v
		}
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")
	}

	if info.Version == "devel" && Version != "" {
		info.Version = normalizeVersion(Version)
	}
	if info.Commit == "" {
		info.Commit = Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = Date
	}
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}
