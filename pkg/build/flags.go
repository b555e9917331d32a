// SPDX-License-Identifier: MIT
//
// Package build carries build metadata injected via -ldflags, e.g.:
//
//	go build -ldflags "-X nebula/pkg/build.buildName=nebula -X nebula/pkg/build.buildVersion=0.1.0"
//
// Development builds without flags fall back to sensible defaults.
package build

type ldFlags struct {
	Name        string // Application name
	Description string // Short description used by the CLI
	Time        string // Build timestamp
	Commit      string // Git commit hash
	Version     string // Semantic version
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "nebula",
		Description: "Audio-reactive 3D particle field visualizer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies build information from ldflags variables into the
// buildFlags struct. Missing flags keep their development defaults.
// This should be called early in program startup.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
