// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// AdminStats is the read-only aggregate shown on the admin page.
type AdminStats struct {
	Users struct {
		Total            int `json:"total"`
		Premium          int `json:"premium"`
		VerifiedTeachers int `json:"verified_teachers"`
	} `json:"users"`
	Sheets struct {
		Total int `json:"total"`
	} `json:"sheets"`
}
