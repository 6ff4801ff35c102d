package config

import "fmt"

// Set at build time with -ldflags "-X".
var (
	Version       = "dev"
	CommitHash    = "n/a"
	BuildTime     = "n/a"
	VersionString = fmt.Sprintf("%s-%s (%s)", Version, CommitHash, BuildTime)
)

// UserAgent identifies ninjabrain to the services it calls.
func UserAgent() string {
	return "ninjabrain/" + Version
}
