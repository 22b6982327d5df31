// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/metasearch/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build line printed by the CLI.
func String() string {
	return fmt.Sprintf("metasearch %s (commit %s, built %s)", Version, Commit, Date)
}
