// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/middleware"
	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/render"
)

// redirect sends a 303 so the browser follows with a GET.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// notify sets the visitor's notice to the translated key.
func notify(r *http.Request, severity model.Severity, key string, args ...any) {
	if ctrl := middleware.GetPortal(r); ctrl != nil {
		ctrl.Notices().Set(i18n.T(middleware.GetLanguage(r), key, args...), severity)
	}
}

// noticeAndRedirect sets a notice and redirects to the given URL.
func noticeAndRedirect(w http.ResponseWriter, r *http.Request, url string, severity model.Severity, key string, args ...any) {
	notify(r, severity, key, args...)
	redirect(w, r, url)
}

// parseFormOrRedirect parses the request form and redirects with an error notice on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		slog.Warn("invalid form data", "path", r.URL.Path, "error", err)
		noticeAndRedirect(w, r, redirectURL, model.SeverityError, "notice.invalid_request")
		return false
	}
	return true
}

// controller returns the visitor's controller. Without one the Portal
// middleware is missing from the chain, which is a wiring bug.
func controller(w http.ResponseWriter, r *http.Request, renderer *render.Renderer) (*portal.Controller, bool) {
	ctrl := middleware.GetPortal(r)
	if ctrl == nil {
		slog.Error("no portal controller in request context", "path", r.URL.Path)
		renderer.Error(w, r, http.StatusInternalServerError)
		return nil, false
	}
	return ctrl, true
}

// renderPage renders a page, falling back to the 500 page on failure.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		slog.Error("failed to render page", "template", name, "error", err)
		renderer.Error(w, r, http.StatusInternalServerError)
	}
}
