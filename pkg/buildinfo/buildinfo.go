// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.jsil.dev/pkg/buildinfo.VersionSuffix=value" to "go build".
package buildinfo

import (
	"fmt"
	"runtime"
)

// Version identifies the version of the compiler. Programs persisted in the
// code cache record it; see package store.
const Version = "v0.4.0"

// VersionSuffix is appended to Version to build the full version string.
var VersionSuffix = "-dev.unknown"

// FullVersion returns Version followed by VersionSuffix.
func FullVersion() string { return Version + VersionSuffix }

// Describe returns a multi-line description of the build.
func Describe() string {
	return fmt.Sprintf("Version: %s\nGo version: %s\n", FullVersion(), runtime.Version())
}
