// Package misc provides build identification shared by all binaries.
package misc

import (
	"runtime/debug"
	"sync"
)

// Set at build time:
//
//	go build -ldflags="-X bidic/misc.version=... -X bidic/misc.gitHash=..."
var (
	appName = "bidic"
	version = ""
	gitHash = ""
)

var readBuildInfo = sync.OnceFunc(func() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && gitHash == "" {
			gitHash = s.Value
		}
	}
})

// GetAppName returns the program name used for log files, temp files and
// report manifests.
func GetAppName() string {
	return appName
}

// GetVersion returns the release version, or "development" when built
// outside of a release.
func GetVersion() string {
	readBuildInfo()
	if version == "" {
		return "development"
	}
	return version
}

// GetGitHash returns the VCS revision the binary was built from.
func GetGitHash() string {
	readBuildInfo()
	if gitHash == "" {
		return "unknown"
	}
	return gitHash
}
