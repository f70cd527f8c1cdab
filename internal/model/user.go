// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the API client, the portal
// controller and the web layer: users, pedagogical sheets, filters, admin
// statistics and notices.
package model

import "strings"

// UserType is the kind of account a visitor registered with.
type UserType string

// User types accepted by the API.
const (
	UserTypeParent  UserType = "parent"
	UserTypeTeacher UserType = "teacher"
)

// IsValid reports whether t is a known user type.
func (t UserType) IsValid() bool {
	return t == UserTypeParent || t == UserTypeTeacher
}

// User is the profile returned by the API for an authenticated visitor.
type User struct {
	ID         string   `json:"id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	UserType   UserType `json:"user_type"`
	IsPremium  bool     `json:"is_premium"`
	IsVerified bool     `json:"is_verified"`
	IsAdmin    bool     `json:"is_admin"`
}

// IsTeacher returns true if the user registered as a teacher.
func (u *User) IsTeacher() bool {
	return u.UserType == UserTypeTeacher
}

// FullName returns "First Last", trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CanGoPremium returns true if the premium offer applies to the user.
func (u *User) CanGoPremium() bool {
	return u.UserType == UserTypeParent && !u.IsPremium
}

// NeedsVerification returns true if the user is a teacher whose status has
// not been confirmed yet.
func (u *User) NeedsVerification() bool {
	return u.IsTeacher() && !u.IsVerified
}
