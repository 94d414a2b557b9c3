// Package consts houses some constants needed across smdecode
package consts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version contains the current semantic version of smdecode.
const Version = "0.3.0"

// Banner is printed above the help text.
const Banner = `smdecode resolves positions in generated JavaScript back to the original sources`

// UserAgent is sent with every remote sourcemap fetch unless configured otherwise.
func UserAgent() string {
	return "smdecode/" + Version
}

// FullVersion returns the version with the commit it was built from, if known.
func FullVersion() string {
	details := VersionDetails()
	if commit, ok := details["commit"]; ok {
		return fmt.Sprintf("%s (commit/%s, %s, %s/%s)", Version, commit, details["go"], runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("%s (%s, %s/%s)", Version, details["go"], runtime.GOOS, runtime.GOARCH)
}

// VersionDetails returns the build details as a flat map.
func VersionDetails() map[string]string {
	details := map[string]string{
		"version": Version,
		"go":      runtime.Version(),
		"arch":    runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return details
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit := s.Value
			if len(commit) > 10 {
				commit = commit[:10]
			}
			details["commit"] = commit
		case "vcs.modified":
			if s.Value == "true" {
				details["dirty"] = "true"
			}
		}
	}
	return details
}
