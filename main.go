package main

import (
	"runtime/debug"
	"strings"

	"github.com/marcus/byot/cmd"
)

// Version may be set at build time via -ldflags "-X main.Version=...".
// Left as "dev", it is derived from the Go build info.
var Version = "dev"

// buildInfo describes this binary for `byot version`. A version injected
// at link time wins; otherwise the module version from `go install`, then
// a devel version built from the VCS revision.
func buildInfo(v string, info *debug.BuildInfo) cmd.BuildInfo {
	bi := cmd.BuildInfo{Version: v}
	if info == nil {
		return bi
	}
	bi.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			bi.Revision = s.Value
			if len(bi.Revision) > 12 {
				bi.Revision = bi.Revision[:12]
			}
		case "vcs.modified":
			bi.Dirty = s.Value == "true"
		}
	}

	if v != "" && v != "dev" {
		return bi
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		bi.Version = info.Main.Version
		return bi
	}
	if bi.Revision != "" {
		parts := []string{"devel", bi.Revision}
		if bi.Dirty {
			parts = append(parts, "dirty")
		}
		bi.Version = strings.Join(parts, "+")
	}
	return bi
}

func main() {
	info, _ := debug.ReadBuildInfo()
	cmd.SetBuildInfo(buildInfo(Version, info))
	cmd.Execute()
}
