package meta

import (
	"fmt"
	"runtime"
)

// These will be filled in using the linker -X flag, e.g.
//
//	go build -ldflags "-X github.com/eternalApril/moonwire/internal/meta.Version=v0.1.0"
var (
	// Version as an arbitrary string
	Version = "dev"

	// Build is the Git sha from when we are building
	Build string

	// BuildTimeUTC is the build time in UTC (year/month/day hour:min:sec)
	BuildTimeUTC string
)

// Info describes the build context of a binary
type Info struct {
	Version   string
	Build     string
	BuildTime string
	Platform  string
	GoVersion string
}

// GetInfo returns an Info struct populated with the build information
func GetInfo() Info {
	return Info{
		Version:   Version,
		Build:     Build,
		BuildTime: BuildTimeUTC,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GoVersion: runtime.Version(),
	}
}

// String renders the line printed by --version
func (i Info) String() string {
	s := i.Version
	if i.Build != "" {
		s += " (" + i.Build + ")"
	}
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return fmt.Sprintf("%s %s %s", s, i.GoVersion, i.Platform)
}
