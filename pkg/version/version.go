package version

import "fmt"

// Set at build time via ldflags, e.g.
// go build -ldflags "-X github.com/burrowbot/burrow/pkg/version.Version=1.0.0 -X github.com/burrowbot/burrow/pkg/version.Commit=abc123".
var (
	Version = "dev"
	Commit  = ""
)

// String is the version as shown to users, with the commit when known.
func String() string {
	if Commit == "" {
		return "burrow " + Version
	}
	return fmt.Sprintf("burrow %s (%s)", Version, Commit)
}
