package version

import (
	"runtime/debug"
	"strings"
)

// FromBuild picks the version to report. A value injected with -ldflags
// wins; then the module version recorded by go install; then a
// devel+<revision>[+dirty] string from VCS stamping. injected is returned
// when nothing better is known.
func FromBuild(injected string) string {
	if injected != "" && injected != "dev" {
		return injected
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return injected
	}
	return fromBuildInfo(injected, info)
}

func fromBuildInfo(injected string, info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return injected
	}
	parts := []string{"devel", rev[:min(len(rev), 12)]}
	if dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "+")
}
