// Package version exposes build metadata injected at link time.
package version

// Set via -ldflags "-X github.com/ragstudio/embedgate/internal/version.Version=... ".
var (
	Version = "dev"
	Commit  = "unknown"
)
