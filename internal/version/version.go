// Package version holds build-time version information injected via ldflags:
//
//	go build -ldflags "-X github.com/hazz-dev/sitepulse/internal/version.Version=v1.2.0" ./cmd/sitepulse
package version

// These variables are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
