// Package version exposes build information for /info and the startup log.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/transcriptfeed/version.Version=1.0.0" ./cmd/transcriptfeed
//
// Values left unset fall back to the VCS stamps of debug.ReadBuildInfo.
package version
