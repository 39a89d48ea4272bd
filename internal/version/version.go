// Package version carries the build identity stamped into the tasksync
// binary at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time; the zero build identifies as "dev".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is one resolved build identity
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// GetInfo resolves the build identity of the running binary
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// UserAgent returns the value tasksync sends as its User-Agent header
func UserAgent() string {
	return "tasksync/" + Version
}

// String returns a formatted version string
func (i Info) String() string {
	commitShort := i.Commit
	if len(commitShort) > 8 {
		commitShort = commitShort[:8]
	}
	return fmt.Sprintf("tasksync %s (%s) built %s with %s for %s",
		i.Version, commitShort, i.Date, i.GoVersion, i.Platform)
}

// Short returns just the version number
func (i Info) Short() string {
	return i.Version
}
