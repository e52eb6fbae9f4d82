// Package version holds build metadata for the rangeagg binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "<unknown>"

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Commit and Date from the embedded VCS build info
// when they were not set by the linker.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String formats the build metadata for the version command.
func String() string {
	return fmt.Sprintf("rangeagg %s (commit: %s, built: %s)", Version, Commit, Date)
}
