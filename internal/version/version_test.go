// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfoZeroValue(t *testing.T) {
	var info Info

	if got := info.Label(); got != "dev" {
		t.Errorf("Label() = %q, want %q", got, "dev")
	}
	if got := info.String(); got != "dev" {
		t.Errorf("String() = %q, want %q", got, "dev")
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "v1.0.0"}, "v1.0.0"},
		{"with commit", Info{Version: "v1.0.0", GitCommit: "abc1234"}, "v1.0.0 (abc1234)"},
		{
			"full",
			Info{Version: "v1.0.0", GitCommit: "abc1234", BuildTime: "2026-01-30T12:00:00Z"},
			"v1.0.0 (abc1234, built 2026-01-30T12:00:00Z)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfoFields(t *testing.T) {
	fields := Info{Version: "v2.1.0", GitCommit: "abcdef123456"}.Fields()
	if len(fields) != 6 {
		t.Fatalf("len(Fields()) = %d, want 6", len(fields))
	}
	if fields[3] != "abcdef1" {
		t.Errorf("commit = %v, want the short hash", fields[3])
	}
}
