package version

import (
	"runtime/debug"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty"`
}

// GetVersionInfo returns the linker-provided values completed from build info.
func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		fillFromSettings(&info, bi.Settings)
	}
	return info
}

func fillFromSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
}

// GetShortVersion returns "version-commit[-dirty]", or just the version when
// no commit is known.
func GetShortVersion() string {
	return GetVersionInfo().Short()
}

// Short formats the info as "version-commit[-dirty]".
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.GitCommit
	if i.IsDirty {
		s += "-dirty"
	}
	return s
}
