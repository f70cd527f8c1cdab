// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/util"
)

// SheetList is the listing payload.
type SheetList struct {
	Sheets []model.Sheet `json:"sheets"`
	Total  int           `json:"total"`
}

// ListSheets returns the sheets visible to the token owner matching filter.
// Absent filter fields are not sent.
func (c *Client) ListSheets(ctx context.Context, token string, filter model.Filter) ([]model.Sheet, error) {
	var out SheetList
	err := c.do(ctx, request{
		operation: "list_sheets",
		method:    http.MethodGet,
		path:      "/api/pedagogical-sheets",
		query:     filter.Values(),
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

// File is a downloaded sheet. The caller must close Body.
type File struct {
	Name          string
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Download fetches the server-relative fileURL with the bearer token.
// Absolute URLs are rejected so the token is only ever sent to the API host.
func (c *Client) Download(ctx context.Context, token, fileURL string) (*File, error) {
	rel, err := util.ValidateRelativeURL(fileURL)
	if err != nil {
		return nil, fmt.Errorf("api download: %w", err)
	}

	target := c.baseURL.String() + rel
	resp, err := c.sendURL(ctx, request{
		operation: "download",
		method:    http.MethodGet,
		token:     token,
		accept:    "*/*",
		stream:    true,
	}, target)
	if err != nil {
		return nil, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &File{
		Name:          util.FilenameFromURL(rel),
		ContentType:   ct,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}
