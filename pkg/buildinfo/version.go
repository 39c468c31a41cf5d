// Package buildinfo holds the version stamped into proxysheet at link time.
//
// Release builds set the three variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/proxysheet/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/proxysheet/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/proxysheet/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/proxysheet
//
// Unstamped builds report "dev".
package buildinfo

import "fmt"

// Set via -X github.com/matzehuels/proxysheet/pkg/buildinfo.<Name>=...
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is a snapshot of the build variables, shaped for JSON responses.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build info.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}

// Template is the cobra --version template.
func Template() string {
	return "{{.Name}} " + Get().String() + "\n"
}

// UserAgent identifies proxysheet to remote catalogs, which ask clients
// to send a descriptive agent.
func UserAgent() string {
	return "proxysheet/" + Version
}
