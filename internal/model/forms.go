// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// MinPasswordLength is the shortest password the API accepts.
const MinPasswordLength = 6

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up form.
type Registration struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6"`
	FirstName string   `json:"first_name" validate:"required,notblank,max=100"`
	LastName  string   `json:"last_name" validate:"required,notblank,max=100"`
	UserType  UserType `json:"user_type" validate:"required,oneof=parent teacher"`
}

// PasswordReset is the reset-password form reached through an emailed link.
type PasswordReset struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UserPasswordReset is the admin form resetting another user's password.
type UserPasswordReset struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ContactMessage is the public contact form.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}
