package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the monogen CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = versionMajorColor.Sprint("0") + "." + versionMinorColor.Sprint("3") + "." + versionPatchColor.Sprint("0") + "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Plain returns Version without colour escapes, suitable for cache keys.
func Plain() string {
	var b strings.Builder
	skip := false
	for _, r := range Version {
		switch {
		case r == '\x1b':
			skip = true
		case skip && r == 'm':
			skip = false
		case !skip:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Describe renders the version line printed by `monogen version`.
func Describe() string {
	out := "monogen " + Version
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		out += " (" + commit + ")"
	}
	if BuildDate != "" {
		out += " built " + BuildDate
	}
	return out
}
