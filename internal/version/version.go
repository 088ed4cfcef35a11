package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the llvmexec CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Short is the version plus an abbreviated commit when one is known.
// It is recorded in program images.
func Short() string {
	if GitCommit == "" {
		return Version
	}
	commit := GitCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return Version + "+" + commit
}

// Colored renders major, minor and patch in their own colors. Anything
// after the patch number is left plain.
func Colored() string {
	core, rest, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2])
	if rest != "" {
		out += "-" + rest
	}
	return out
}
