// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// Label returns the version, or "dev" for builds without ldflags.
func (i Info) Label() string {
	if i.Version == "" {
		return "dev"
	}
	return i.Version
}

// String returns the version with its commit and build time when known.
func (i Info) String() string {
	s := i.Label()
	if i.GitCommit != "" {
		s += " (" + i.GitCommit
		if i.BuildTime != "" {
			s += ", built " + i.BuildTime
		}
		s += ")"
	}
	return s
}

// Fields returns the info as slog key/value pairs.
func (i Info) Fields() []any {
	return []any{"version", i.Label(), "commit", fmt.Sprintf("%.7s", i.GitCommit), "built", i.BuildTime}
}
