// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/render"
	"github.com/olegiv/ecole-go/internal/store"
)

// recentEventsLimit is how many event log entries the admin page shows.
const recentEventsLimit = 20

// EventLister reads the local event log.
type EventLister interface {
	ListEvents(ctx context.Context, arg store.ListEventsParams) ([]model.Event, error)
}

// AdminHandler handles the admin page and its forms. Every action goes
// through portal.Admin; the routes are also behind middleware.RequireAdmin.
type AdminHandler struct {
	renderer  *render.Renderer
	events    EventLister
	maxUpload int64
}

// NewAdminHandler creates a new AdminHandler. Sheet files are limited to
// portal.MaxSheetFileSize.
func NewAdminHandler(renderer *render.Renderer, events EventLister) *AdminHandler {
	return &AdminHandler{
		renderer:  renderer,
		events:    events,
		maxUpload: portal.MaxSheetFileSize,
	}
}

// AdminData is the admin page data.
type AdminData struct {
	State         portal.AdminState
	ShortcutEmail string
	Events        []model.Event
	MaxUploadMB   int64
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	ctrl.SetView(portal.ViewAdmin)

	admin := ctrl.Admin()
	if err := admin.Load(r.Context()); err != nil && !ctrl.IsAuthenticated() {
		redirect(w, r, RouteAuth+"?mode=login")
		return
	}

	var events []model.Event
	if h.events != nil {
		var err error
		events, err = h.events.ListEvents(r.Context(), store.ListEventsParams{Limit: recentEventsLimit})
		if err != nil {
			slog.Error("failed to list events", "error", err)
		}
	}

	renderPage(w, r, h.renderer, http.StatusOK, "pages/admin", render.TemplateData{
		Title: "page.admin.title",
		Data: AdminData{
			State:         admin.State(),
			ShortcutEmail: admin.ShortcutEmail(),
			Events:        events,
			MaxUploadMB:   h.maxUpload >> 20,
		},
	})
}

// CreateSheet handles POST /admin/sheets, a multipart form with the PDF
// under "file". The form is read part by part so the text fields are kept
// even when the file is rejected.
func (h *AdminHandler) CreateSheet(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxFormMemory)
	up, err := readSheetUpload(r, h.maxUpload)
	defer up.Close()

	form := sheetForm(up.values)
	if err != nil {
		slog.Warn("invalid sheet form", "category", model.EventCategoryAdmin, "error", err)
		ctrl.Admin().KeepForm(form)
		noticeAndRedirect(w, r, RouteAdmin, model.SeverityError, "notice.invalid_request")
		return
	}

	_ = ctrl.Admin().CreateSheet(r.Context(), form, up.input())
	h.afterAction(w, r, ctrl)
}

func sheetForm(v url.Values) model.SheetForm {
	return model.SheetForm{
		Title:         strings.TrimSpace(v.Get("title")),
		Description:   strings.TrimSpace(v.Get("description")),
		Level:         model.Level(v.Get("level")),
		Subject:       model.Subject(v.Get("subject")),
		IsPremium:     v.Get("is_premium") == "on",
		IsTeacherOnly: v.Get("is_teacher_only") == "on",
	}
}

// sheetUpload is a sheet form read from a multipart stream. The file is
// spooled to a temporary file.
type sheetUpload struct {
	values url.Values
	file   *os.File
	name   string
	size   int64
}

// readSheetUpload reads the fields and the "file" part. A file over maxFile
// stops the read: its size is reported as maxFile+1 and the portal rejects
// it with the size notice. The returned upload is never nil.
func readSheetUpload(r *http.Request, maxFile int64) (*sheetUpload, error) {
	up := &sheetUpload{values: url.Values{}}
	mr, err := r.MultipartReader()
	if err != nil {
		return up, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return up, nil
		}
		if err != nil {
			return up, err
		}

		if part.FileName() == "" {
			b, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
			if err != nil {
				return up, err
			}
			if len(b) > maxFieldSize {
				return up, fmt.Errorf("field %q too large", part.FormName())
			}
			up.values.Add(part.FormName(), string(b))
			continue
		}
		if part.FormName() != "file" || up.file != nil {
			continue
		}

		if err := up.spool(part, maxFile); err != nil {
			return up, err
		}
		if up.size > maxFile {
			return up, nil
		}
	}
}

func (u *sheetUpload) spool(part *multipart.Part, maxFile int64) error {
	f, err := os.CreateTemp("", "ecole-sheet-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	u.file = f
	u.name = part.FileName()

	u.size, err = io.Copy(f, io.LimitReader(part, maxFile+1))
	if err != nil {
		return fmt.Errorf("reading file part: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding temp file: %w", err)
	}
	return nil
}

// input returns the spooled file, or nil when none was sent.
func (u *sheetUpload) input() *portal.FileInput {
	if u.file == nil || u.name == "" {
		return nil
	}
	return &portal.FileInput{Filename: u.name, Size: u.size, Content: u.file}
}

// Close removes the temporary file.
func (u *sheetUpload) Close() {
	if u.file == nil {
		return
	}
	_ = u.file.Close()
	_ = os.Remove(u.file.Name())
}

// sheetID returns the {id} route parameter if it is a UUID.
func sheetID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := uuid.Validate(id); err != nil {
		return "", false
	}
	return id, true
}

// DeleteData is the deletion confirmation page data.
type DeleteData struct {
	Sheet model.Sheet
}

// DeleteConfirm handles GET /admin/sheets/{id}/delete. Deletion always goes
// through this page.
func (h *AdminHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	id, ok := sheetID(r)
	if !ok {
		h.renderer.Error(w, r, http.StatusNotFound)
		return
	}

	admin := ctrl.Admin()
	sheet, found := admin.FindSheet(id)
	if !found {
		// The list in the session may be stale.
		_, _ = admin.Sheets(r.Context())
		sheet, found = admin.FindSheet(id)
	}
	if !found {
		h.renderer.Error(w, r, http.StatusNotFound)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "pages/admin_delete", render.TemplateData{
		Title: "page.admin_delete.title",
		View:  string(portal.ViewAdmin),
		Data:  DeleteData{Sheet: sheet},
	})
}

// Delete handles POST /admin/sheets/{id}/delete. Only confirm=yes deletes;
// any other answer cancels without calling the API.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteAdmin) {
		return
	}
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	id, ok := sheetID(r)
	if !ok {
		h.renderer.Error(w, r, http.StatusNotFound)
		return
	}

	confirmed := r.PostFormValue(formConfirm) == formConfirmYes
	_ = ctrl.Admin().DeleteSheet(r.Context(), id, confirmed)
	h.afterAction(w, r, ctrl)
}

// ResetPassword handles POST /admin/reset-password.
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteAdmin) {
		return
	}
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	_ = ctrl.Admin().ResetUserPassword(r.Context(), model.UserPasswordReset{
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		NewPassword: r.PostFormValue("new_password"),
	})
	h.afterAction(w, r, ctrl)
}

// ResetShortcut handles POST /admin/reset-password/shortcut. The route does
// not exist unless the shortcut is configured.
func (h *AdminHandler) ResetShortcut(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	if err := ctrl.Admin().ResetShortcut(r.Context()); errors.Is(err, portal.ErrShortcutDisabled) {
		h.renderer.Error(w, r, http.StatusNotFound)
		return
	}
	h.afterAction(w, r, ctrl)
}

// afterAction redirects back to the admin page, or to the login form when
// the API rejected the session.
func (h *AdminHandler) afterAction(w http.ResponseWriter, r *http.Request, ctrl *portal.Controller) {
	if !ctrl.IsAuthenticated() {
		redirect(w, r, RouteAuth+"?mode=login")
		return
	}
	redirect(w, r, RouteAdmin)
}
