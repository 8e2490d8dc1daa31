package version

import "fmt"

var (
	// Version is the semantic version of the chaindash binary. Overridden at build time.
	Version = "dev"
	// Commit is the git commit hash. Overridden at build time.
	Commit = "unknown"
	// BuildDate is the build timestamp. Overridden at build time.
	BuildDate = "unknown"
)

// UserAgent identifies outbound requests made by chaindash.
func UserAgent() string {
	return fmt.Sprintf("chaindash/%s", Version)
}
