// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Severity of a notice.
type Severity string

// Notice severities.
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notice is the single transient message shown to the visitor.
type Notice struct {
	Visible  bool     `json:"visible"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
