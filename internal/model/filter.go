// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "net/url"

// FilterAll is the select value meaning "no restriction".
const FilterAll = "all"

// Filter restricts a sheet listing by level and subject.
// An empty field or FilterAll both mean the field is absent.
type Filter struct {
	Level   Level
	Subject Subject
}

// ParseFilter reads a filter from query parameters. Unknown values are
// dropped so a crafted URL cannot reach the API with arbitrary input.
func ParseFilter(q url.Values) Filter {
	var f Filter
	if l := Level(q.Get("level")); l.IsValid() {
		f.Level = l
	}
	if s := Subject(q.Get("subject")); s.IsValid() {
		f.Subject = s
	}
	return f
}

// Normalize maps FilterAll to the empty value so equal filters compare equal.
func (f Filter) Normalize() Filter {
	if !f.HasLevel() {
		f.Level = ""
	}
	if !f.HasSubject() {
		f.Subject = ""
	}
	return f
}

// HasLevel returns true if the level restriction is set.
func (f Filter) HasLevel() bool {
	return f.Level != "" && f.Level != FilterAll
}

// HasSubject returns true if the subject restriction is set.
func (f Filter) HasSubject() bool {
	return f.Subject != "" && f.Subject != FilterAll
}

// IsZero returns true if the filter restricts nothing.
func (f Filter) IsZero() bool {
	return !f.HasLevel() && !f.HasSubject()
}

// Values returns the query parameters for the present fields only.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.HasLevel() {
		v.Set("level", string(f.Level))
	}
	if f.HasSubject() {
		v.Set("subject", string(f.Subject))
	}
	return v
}

// Query returns the encoded query string, empty when no field is present.
func (f Filter) Query() string {
	return f.Values().Encode()
}

// LevelValue returns the select value for the level field.
func (f Filter) LevelValue() string {
	if !f.HasLevel() {
		return FilterAll
	}
	return string(f.Level)
}

// SubjectValue returns the select value for the subject field.
func (f Filter) SubjectValue() string {
	if !f.HasSubject() {
		return FilterAll
	}
	return string(f.Subject)
}
