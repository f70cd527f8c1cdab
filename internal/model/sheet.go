// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "slices"

// Level is a French school level code.
type Level string

// School levels, from nursery to the last year of collège.
const (
	LevelPS  Level = "PS"
	LevelMS  Level = "MS"
	LevelGS  Level = "GS"
	LevelCP  Level = "CP"
	LevelCE1 Level = "CE1"
	LevelCE2 Level = "CE2"
	LevelCM1 Level = "CM1"
	LevelCM2 Level = "CM2"
	Level6e  Level = "6e"
	Level5e  Level = "5e"
	Level4e  Level = "4e"
	Level3e  Level = "3e"
)

var levels = []Level{
	LevelPS, LevelMS, LevelGS, LevelCP, LevelCE1, LevelCE2,
	LevelCM1, LevelCM2, Level6e, Level5e, Level4e, Level3e,
}

// Levels returns all school levels in curriculum order.
func Levels() []Level {
	return slices.Clone(levels)
}

// IsValid reports whether l is a known level code.
func (l Level) IsValid() bool {
	return slices.Contains(levels, l)
}

// Subject is a school subject name as the API stores it.
type Subject string

// Subjects taught on the platform.
const (
	SubjectMaths     Subject = "mathématiques"
	SubjectFrench    Subject = "français"
	SubjectSciences  Subject = "sciences"
	SubjectDiscovery Subject = "découverte du monde"
	SubjectHistory   Subject = "histoire"
	SubjectGeography Subject = "géographie"
)

var subjects = []Subject{
	SubjectMaths, SubjectFrench, SubjectSciences,
	SubjectDiscovery, SubjectHistory, SubjectGeography,
}

// Subjects returns all subjects in display order.
func Subjects() []Subject {
	return slices.Clone(subjects)
}

// IsValid reports whether s is a known subject.
func (s Subject) IsValid() bool {
	return slices.Contains(subjects, s)
}

// Sheet is a downloadable pedagogical resource.
type Sheet struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Level         Level   `json:"level"`
	Subject       Subject `json:"subject"`
	IsPremium     bool    `json:"is_premium"`
	IsTeacherOnly bool    `json:"is_teacher_only"`
	FileURL       string  `json:"file_url"`
	CreatedAt     string  `json:"created_at"`
}

// SheetForm holds the admin creation form. It is kept between requests so a
// failed submission can be corrected without retyping.
type SheetForm struct {
	Title         string  `json:"title" validate:"required,notblank,max=200"`
	Description   string  `json:"description" validate:"required,notblank,max=2000"`
	Level         Level   `json:"level" validate:"required,level"`
	Subject       Subject `json:"subject" validate:"required,subject"`
	IsPremium     bool    `json:"is_premium"`
	IsTeacherOnly bool    `json:"is_teacher_only"`
}

// DefaultSheetForm returns the creation form in its initial state.
func DefaultSheetForm() SheetForm {
	return SheetForm{
		Level:   LevelCP,
		Subject: SubjectMaths,
	}
}
