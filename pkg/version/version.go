// Package version reports the build version of the topology binaries.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

var (
	gitVersion string // semantic version, derived by build scripts
	gitCommit  string // sha1 from git, output of $(git rev-parse HEAD)
)

// Info exposes information about the version used for the current running code.
type Info struct {
	GitVersion string `json:"gitVersion,omitempty"`
	GitCommit  string `json:"gitCommit,omitempty"`
	GoVersion  string `json:"goVersion"`
}

// Get returns the linker-provided version, falling back to the module build info.
func Get() *Info {
	info := &Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		GoVersion:  runtime.Version(),
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		if info.GitVersion == "" && build.Main.Version != "(devel)" {
			info.GitVersion = build.Main.Version
		}
		for _, s := range build.Settings {
			if s.Key == "vcs.revision" && info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		}
	}
	return info
}

func (i *Info) String() string {
	return fmt.Sprintf("version: %s, commit: %s, go: %s", i.GitVersion, i.GitCommit, i.GoVersion)
}

func (i *Info) Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s info - %s\n", name, i)
}
