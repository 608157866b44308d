// Package version holds build information injected at link time.
package version

import "fmt"

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = "unknown"
)

// SetInfo overrides build information. Empty values keep the defaults.
func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("panelctl %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
