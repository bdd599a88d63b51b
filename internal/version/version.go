// Package version contains build version information.
package version

// Version, GitCommit and BuildDate are set at build time via ldflags:
//
//	-X github.com/dandy1414/user-api/internal/version.Version=1.2.3
var (
	Version   = "0.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
