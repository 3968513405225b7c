package version

import (
	"runtime/debug"
	"strings"
)

// ModulePath is the import path of this module.
const ModulePath = "github.com/kbukum/kiotahttp"

var (
	// Version is set at build time using -ldflags. When left at "dev" the
	// module version recorded in the importing binary is used instead.
	Version   = "dev"
	GitCommit = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	IsRelease bool   `json:"is_release"`
	IsDirty   bool   `json:"is_dirty"`
}

var readBuildInfo = debug.ReadBuildInfo

// GetVersionInfo returns version information for this module.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
	}

	if buildInfo, ok := readBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		if info.Version == "dev" {
			info.Version = moduleVersion(buildInfo)
		}
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
					if len(info.GitCommit) > 7 {
						info.GitCommit = info.GitCommit[:7]
					}
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			}
		}
	}

	info.IsRelease = info.Version != "dev" && !strings.Contains(info.Version, "dirty") &&
		!strings.Contains(info.Version, "devel")
	return info
}

// moduleVersion finds this module among the binary's dependencies, or as the
// main module when built from this repository.
func moduleVersion(buildInfo *debug.BuildInfo) string {
	for _, dep := range buildInfo.Deps {
		if dep.Path == ModulePath {
			if dep.Replace != nil && dep.Replace.Version != "" {
				return strings.TrimPrefix(dep.Replace.Version, "v")
			}
			return strings.TrimPrefix(dep.Version, "v")
		}
	}
	if buildInfo.Main.Path == ModulePath && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		return strings.TrimPrefix(buildInfo.Main.Version, "v")
	}
	return "dev"
}

// ProductVersion returns the version advertised in the User-Agent product
// token.
func ProductVersion() string {
	return GetVersionInfo().Version
}
