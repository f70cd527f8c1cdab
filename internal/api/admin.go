// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/olegiv/ecole-go/internal/model"
)

// AdminStats returns the platform aggregates.
func (c *Client) AdminStats(ctx context.Context, token string) (*model.AdminStats, error) {
	var out model.AdminStats
	err := c.do(ctx, request{
		operation: "admin_stats",
		method:    http.MethodGet,
		path:      "/api/admin/stats",
		token:     token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminSheets returns every sheet regardless of tier.
func (c *Client) AdminSheets(ctx context.Context, token string) ([]model.Sheet, error) {
	var out SheetList
	err := c.do(ctx, request{
		operation: "admin_list_sheets",
		method:    http.MethodGet,
		path:      "/api/admin/pedagogical-sheets",
		token:     token,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Sheets == nil {
		out.Sheets = []model.Sheet{}
	}
	return out.Sheets, nil
}

// CreateSheet uploads a new sheet with its PDF file.
func (c *Client) CreateSheet(ctx context.Context, token string, form model.SheetForm, file Upload) (*model.Sheet, error) {
	fields := []formField{
		{"title", form.Title},
		{"description", form.Description},
		{"level", string(form.Level)},
		{"subject", string(form.Subject)},
		{"is_premium", boolField(form.IsPremium)},
		{"is_teacher_only", boolField(form.IsTeacherOnly)},
	}
	body, contentType, err := multipartBody(fields, "file", &file)
	if err != nil {
		return nil, err
	}

	var out struct {
		Sheet model.Sheet `json:"sheet"`
	}
	err = c.do(ctx, request{
		operation:   "admin_create_sheet",
		method:      http.MethodPost,
		path:        "/api/admin/pedagogical-sheets",
		token:       token,
		body:        body,
		contentType: contentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Sheet, nil
}

// DeleteSheet removes a sheet.
func (c *Client) DeleteSheet(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		operation: "admin_delete_sheet",
		method:    http.MethodDelete,
		path:      "/api/admin/pedagogical-sheets/" + url.PathEscape(id),
		token:     token,
	}, nil)
}

// ResetUserPassword sets another user's password.
func (c *Client) ResetUserPassword(ctx context.Context, token string, in model.UserPasswordReset) error {
	fields := []formField{
		{"email", in.Email},
		{"new_password", in.NewPassword},
	}
	body, contentType, err := multipartBody(fields, "", nil)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "admin_reset_user_password",
		method:      http.MethodPost,
		path:        "/api/admin/reset-user-password",
		token:       token,
		body:        body,
		contentType: contentType,
	}, nil)
}
