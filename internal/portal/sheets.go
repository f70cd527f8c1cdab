// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"context"
	"slices"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/model"
)

// Filter returns the applied sheet filter.
func (c *Controller) Filter() model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Filter
}

// Sheets returns the current sheet collection and whether it was loaded.
func (c *Controller) Sheets() ([]model.Sheet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.state.Sheets), c.state.SheetsLoaded
}

// SetFilter applies filter. A changed filter, or one never listed, issues
// exactly one listing call; an unchanged filter issues none.
func (c *Controller) SetFilter(ctx context.Context, filter model.Filter) error {
	filter = filter.Normalize()

	c.mu.Lock()
	unchanged := c.state.SheetsLoaded && c.state.Filter == filter
	c.state.Filter = filter
	c.mu.Unlock()

	if unchanged {
		return nil
	}
	return c.refreshSheets(ctx)
}

// RefreshSheets lists sheets again with the applied filter.
func (c *Controller) RefreshSheets(ctx context.Context) error {
	return c.refreshSheets(ctx)
}

// refreshSheets issues one listing call tagged with a new generation. The
// response is applied only if no later listing was issued meanwhile; a
// superseded response is dropped, success or failure. On failure the
// previous collection is kept.
func (c *Controller) refreshSheets(ctx context.Context) error {
	c.mu.Lock()
	if c.state.User == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	c.gen++
	gen := c.gen
	filter := c.state.Filter
	c.mu.Unlock()

	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}

	sheets, err := c.api.ListSheets(ctx, token, filter)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded sheet listing", "generation", gen)
		return nil
	}
	if err == nil {
		c.state.Sheets = sheets
		c.state.SheetsLoaded = true
	}
	c.mu.Unlock()

	if err != nil {
		if c.handleUnauthorized(ctx, err) {
			return err
		}
		c.logger.Warn("failed to list sheets", "category", model.EventCategorySheet, "error", err)
		c.fail(err, "notice.sheets_load_failed")
		return err
	}
	return nil
}

// Download fetches a sheet file. The caller streams and closes File.Body.
func (c *Controller) Download(ctx context.Context, fileURL string) (*api.File, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return nil, err
	}

	f, err := c.api.Download(ctx, token, fileURL)
	if err != nil {
		if c.handleUnauthorized(ctx, err) {
			return nil, err
		}
		c.logger.Warn("sheet download failed", "category", model.EventCategorySheet, "file_url", fileURL, "error", err)
		c.failMessage(c.t("notice.download_failed"))
		return nil, err
	}
	return f, nil
}
