// Package version carries the build version, overridden at link time
// via -ldflags "-X github.com/slotwise/slotctl/internal/version.Version=...".
package version

var Version = "dev"
