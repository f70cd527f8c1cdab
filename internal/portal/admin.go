// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/model"
)

// MaxSheetFileSize limits the PDF attached to a new sheet.
const MaxSheetFileSize = 20 << 20

var sheetFileTypes = map[string]string{
	".pdf": "application/pdf",
}

// Admin is the admin workflow: stats, sheet list, creation, deletion and
// user password reset. Every admin entry point goes through it.
type Admin struct {
	c *Controller
}

// Admin returns the admin workflow of the controller.
func (c *Controller) Admin() *Admin {
	return &Admin{c: c}
}

// token returns the admin's token, or ErrNotAuthenticated/ErrAdminRequired
// without any API call.
func (a *Admin) token(ctx context.Context) (string, error) {
	c := a.c
	token, err := c.requireToken(ctx)
	if err != nil {
		return "", err
	}
	if !c.IsAdmin() {
		c.logger.Warn("admin action denied", "category", model.EventCategoryAdmin)
		c.failMessage(c.t("notice.admin_required"))
		return "", ErrAdminRequired
	}
	return token, nil
}

// State returns a copy of the admin page state.
func (a *Admin) State() AdminState {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()

	s := a.c.state.clone().Admin
	return s
}

// Load fetches stats and the sheet list. Both are attempted; the first
// error is returned.
func (a *Admin) Load(ctx context.Context) error {
	_, statsErr := a.Stats(ctx)
	if statsErr != nil && !a.c.IsAdmin() {
		return statsErr
	}
	_, sheetsErr := a.Sheets(ctx)
	if statsErr != nil {
		return statsErr
	}
	return sheetsErr
}

// Stats fetches the platform aggregates. On failure the previous stats stay.
func (a *Admin) Stats(ctx context.Context) (*model.AdminStats, error) {
	c := a.c
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := c.api.AdminStats(ctx, token)
	if err != nil {
		if c.handleUnauthorized(ctx, err) {
			return nil, err
		}
		c.logger.Warn("failed to load admin stats", "category", model.EventCategoryAdmin, "error", err)
		c.fail(err, "notice.admin_stats_failed")
		return nil, err
	}

	c.mu.Lock()
	c.state.Admin.Stats = stats
	c.mu.Unlock()

	out := *stats
	return &out, nil
}

// Sheets fetches every sheet. On failure the previous list stays.
func (a *Admin) Sheets(ctx context.Context) ([]model.Sheet, error) {
	c := a.c
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	sheets, err := c.api.AdminSheets(ctx, token)
	if err != nil {
		if c.handleUnauthorized(ctx, err) {
			return nil, err
		}
		c.logger.Warn("failed to load admin sheets", "category", model.EventCategoryAdmin, "error", err)
		c.fail(err, "notice.admin_sheets_failed")
		return nil, err
	}

	c.mu.Lock()
	c.state.Admin.Sheets = sheets
	c.mu.Unlock()

	return slices.Clone(sheets), nil
}

// CreateSheet uploads a new sheet. On success the form is reset and the
// list is fetched again; on failure the form keeps the entered values.
func (a *Admin) CreateSheet(ctx context.Context, form model.SheetForm, file *FileInput) error {
	c := a.c

	c.mu.Lock()
	c.state.Admin.Form = form
	c.mu.Unlock()

	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	if err := c.validate(form); err != nil {
		return err
	}
	contentType, err := c.checkFile(file, sheetFileTypes, MaxSheetFileSize, "notice.sheet_file_invalid")
	if err != nil {
		return err
	}

	sheet, err := c.api.CreateSheet(ctx, token, form, api.Upload{
		Filename:    filepath.Base(file.Filename),
		ContentType: contentType,
		Data:        file.Content,
	})
	if err != nil {
		if c.handleUnauthorized(ctx, err) {
			return err
		}
		c.logger.Warn("failed to create sheet", "category", model.EventCategoryAdmin, "title", form.Title, "error", err)
		c.fail(err, "notice.sheet_create_failed")
		return err
	}

	c.mu.Lock()
	c.state.Admin.Form = model.DefaultSheetForm()
	c.mu.Unlock()

	c.logger.Info("sheet created", "sheet_id", sheet.ID, "title", sheet.Title)
	c.success("notice.sheet_created")

	// Read after write: the list comes from the API, not from the response.
	_, _ = a.Sheets(ctx)
	return nil
}

// KeepForm stores entered values that could not be submitted, so the admin
// page shows them again.
func (a *Admin) KeepForm(form model.SheetForm) {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	a.c.state.Admin.Form = form
}

// DeleteSheet deletes a sheet once the admin confirmed. Without confirmation
// no call is made and the list is untouched.
func (a *Admin) DeleteSheet(ctx context.Context, id string, confirmed bool) error {
	c := a.c
	if !confirmed {
		c.info("notice.delete_cancelled")
		return ErrNotConfirmed
	}

	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	if err := c.api.DeleteSheet(ctx, token, id); err != nil {
		if c.handleUnauthorized(ctx, err) {
			return err
		}
		c.logger.Warn("failed to delete sheet", "category", model.EventCategoryAdmin, "sheet_id", id, "error", err)
		c.fail(err, "notice.sheet_delete_failed")
		return err
	}

	c.logger.Info("sheet deleted", "sheet_id", id)
	c.success("notice.sheet_deleted")

	_, _ = a.Sheets(ctx)
	return nil
}

// FindSheet returns the sheet with id from the loaded admin list.
func (a *Admin) FindSheet(id string) (model.Sheet, bool) {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()

	for _, s := range a.c.state.Admin.Sheets {
		if s.ID == id {
			return s, true
		}
	}
	return model.Sheet{}, false
}

// ResetUserPassword sets another user's password.
func (a *Admin) ResetUserPassword(ctx context.Context, in model.UserPasswordReset) error {
	c := a.c
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	if err := c.validate(in); err != nil {
		return err
	}

	if err := c.api.ResetUserPassword(ctx, token, in); err != nil {
		if c.handleUnauthorized(ctx, err) {
			return err
		}
		c.logger.Warn("admin password reset failed", "category", model.EventCategoryAdmin, "email", in.Email, "error", err)
		c.failMessage(c.t("notice.user_password_reset_failed"))
		return err
	}

	c.logger.Warn("user password reset by admin", "category", model.EventCategoryAdmin, "email", in.Email)
	c.success("notice.user_password_reset", in.Email)
	return nil
}

// ShortcutEmail returns the account targeted by the reset shortcut, or ""
// when the shortcut is disabled.
func (a *Admin) ShortcutEmail() string {
	if a.c.shortcut == nil {
		return ""
	}
	return a.c.shortcut.Email
}

// ResetShortcut resets the configured account to the configured password.
// It is off unless explicitly configured and is a known weak point: anyone
// holding an admin session can reset that account with one click.
func (a *Admin) ResetShortcut(ctx context.Context) error {
	if a.c.shortcut == nil {
		return ErrShortcutDisabled
	}
	a.c.logger.Warn("admin reset shortcut used", "category", model.EventCategoryAdmin, "email", a.c.shortcut.Email)
	return a.ResetUserPassword(ctx, *a.c.shortcut)
}
