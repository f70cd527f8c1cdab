// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/olegiv/ecole-go/internal/model"
)

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*AuthResult, error) {
	body, err := jsonBody(creds)
	if err != nil {
		return nil, err
	}

	var out AuthResult
	err = c.do(ctx, request{
		operation:   "login",
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        body,
		contentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*AuthResult, error) {
	body, err := jsonBody(reg)
	if err != nil {
		return nil, err
	}

	var out AuthResult
	err = c.do(ctx, request{
		operation:   "register",
		method:      http.MethodPost,
		path:        "/api/auth/register",
		body:        body,
		contentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks the API to email a reset link. The API answers the
// same way whether or not the address is registered.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body, err := jsonBody(map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "forgot_password",
		method:      http.MethodPost,
		path:        "/api/auth/forgot-password",
		body:        body,
		contentType: "application/json",
	}, nil)
}

// ResetPassword sets a new password using an emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, in model.PasswordReset) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "reset_password",
		method:      http.MethodPost,
		path:        "/api/auth/reset-password",
		body:        body,
		contentType: "application/json",
	}, nil)
}

// Profile returns the user owning token.
func (c *Client) Profile(ctx context.Context, token string) (*model.User, error) {
	var out model.User
	err := c.do(ctx, request{
		operation: "profile",
		method:    http.MethodGet,
		path:      "/api/user/profile",
		token:     token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
