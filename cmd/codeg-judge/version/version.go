// Package version reports the build version of the judge server
package version

import (
	"embed"
	"io"
	"runtime/debug"
	"strings"
)

//go:generate sh -c "git describe --tags --always > version.txt"

//go:embed version.*
var versions embed.FS

// Version is the build version, read from version.txt when generated
var Version = "unable to get version"

func init() {
	Version = load()
}

func load() string {
	f, err := versions.Open("version.txt")
	if err != nil {
		// not generated, fall back to the module version of go install
		if inf, ok := debug.ReadBuildInfo(); ok {
			return inf.Main.Version
		}
		return Version
	}
	defer f.Close()
	s, err := io.ReadAll(f)
	if err != nil {
		return Version
	}
	return strings.TrimSpace(string(s))
}
