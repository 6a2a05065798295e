package app

import "fmt"

// Build information populated via -ldflags at build time.
var (
	// BuildVersion is the semantic version of the built binary.
	BuildVersion = "0.0.0-dev"
	// BuildCommit is the VCS commit SHA associated with the build.
	BuildCommit = "unknown"
	// BuildDate is the ISO-8601 timestamp of the build.
	BuildDate = "unknown"
)

// VersionString is the one-line form printed by `hcaudit version` and
// stamped into manifests.
func VersionString() string {
	return fmt.Sprintf("hcaudit %s (commit %s, built %s)", BuildVersion, BuildCommit, BuildDate)
}
