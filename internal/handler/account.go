// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/render"
	"github.com/olegiv/ecole-go/internal/util"
)

// AccountHandler serves the signed-in area: the sheet dashboard, downloads,
// the premium subscription and teacher verification.
type AccountHandler struct {
	renderer  *render.Renderer
	maxUpload int64
}

// NewAccountHandler creates a new AccountHandler. maxUpload is the largest
// accepted document in bytes.
func NewAccountHandler(renderer *render.Renderer, maxUpload int64) *AccountHandler {
	if maxUpload <= 0 {
		maxUpload = portal.DefaultMaxUpload
	}
	return &AccountHandler{
		renderer:  renderer,
		maxUpload: maxUpload,
	}
}

// DashboardData is the dashboard page data.
type DashboardData struct {
	Filter           model.Filter
	Sheets           []model.Sheet
	Loaded           bool
	VerificationFile string
	MaxUploadMB      int64
}

// Dashboard handles GET /dashboard. A level or subject parameter applies a
// new filter; refresh=1 lists again with the current one.
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	ctrl.SetView(portal.ViewDashboard)

	q := r.URL.Query()
	switch {
	case q.Has("level") || q.Has("subject"):
		_ = ctrl.SetFilter(r.Context(), model.ParseFilter(q))
	case q.Get("refresh") == "1":
		_ = ctrl.RefreshSheets(r.Context())
	default:
		if _, loaded := ctrl.Sheets(); !loaded {
			_ = ctrl.RefreshSheets(r.Context())
		}
	}

	// A rejected token during listing ends the session.
	if !ctrl.IsAuthenticated() {
		redirect(w, r, RouteAuth+"?mode=login")
		return
	}

	sheets, loaded := ctrl.Sheets()
	renderPage(w, r, h.renderer, http.StatusOK, "pages/dashboard", render.TemplateData{
		Title: "page.dashboard.title",
		Data: DashboardData{
			Filter:           ctrl.Filter(),
			Sheets:           sheets,
			Loaded:           loaded,
			VerificationFile: ctrl.VerificationFile(),
			MaxUploadMB:      h.maxUpload >> 20,
		},
	})
}

// Download handles GET /download?file=. The sheet file is streamed from the
// API as an attachment.
func (h *AccountHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	fileURL := r.URL.Query().Get("file")
	f, err := ctrl.Download(r.Context(), fileURL)
	if err != nil {
		if !ctrl.IsAuthenticated() {
			redirect(w, r, RouteAuth+"?mode=login")
			return
		}
		redirect(w, r, RouteDashboard)
		return
	}
	defer func() { _ = f.Body.Close() }()

	name := f.Name
	if name == "" {
		name = util.FilenameFromURL(fileURL)
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if f.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.ContentLength, 10))
	}

	if _, err := io.Copy(w, f.Body); err != nil {
		slog.Warn("sheet download interrupted", "category", model.EventCategorySheet, "file", name, "error", err)
	}
}

// attachment returns a Content-Disposition value with an ASCII fallback name
// and the UTF-8 original (RFC 6266).
func attachment(name string) string {
	return `attachment; filename="` + util.ASCIIFilename(name) + `"; filename*=UTF-8''` + url.PathEscape(name)
}

// Subscribe handles POST /subscription.
func (h *AccountHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	if err := ctrl.Subscribe(r.Context()); err != nil {
		if !ctrl.IsAuthenticated() {
			redirect(w, r, RouteAuth+"?mode=login")
			return
		}
		redirect(w, r, RoutePremium)
		return
	}
	redirect(w, r, RouteDashboard)
}

// UploadVerification handles POST /verification, a multipart form with the
// document under "document".
func (h *AccountHandler) UploadVerification(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	// The limit leaves room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			noticeAndRedirect(w, r, RouteDashboard, model.SeverityError, "notice.file_too_large", h.maxUpload>>20)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			slog.Warn("invalid verification form", "error", err)
		}
		noticeAndRedirect(w, r, RouteDashboard, model.SeverityError, "notice.invalid_request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var input *portal.FileInput
	file, header, err := r.FormFile("document")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		input = fileInput(file, header)
	case !errors.Is(err, http.ErrMissingFile):
		slog.Warn("failed to read verification document", "error", err)
	}

	if err := ctrl.UploadVerification(r.Context(), input); err != nil && !ctrl.IsAuthenticated() {
		redirect(w, r, RouteAuth+"?mode=login")
		return
	}
	redirect(w, r, RouteDashboard)
}

func fileInput(file multipart.File, header *multipart.FileHeader) *portal.FileInput {
	return &portal.FileInput{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
}
