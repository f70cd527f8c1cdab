// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/olegiv/ecole-go/internal/content"
	"github.com/olegiv/ecole-go/internal/middleware"
	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/render"
	"github.com/olegiv/ecole-go/internal/store"
)

// EventRecorder stores an entry in the local event log.
type EventRecorder interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) (model.Event, error)
}

// PagesHandler serves the public pages and the contact form.
type PagesHandler struct {
	renderer  *render.Renderer
	validator portal.Validator
	events    EventRecorder
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(renderer *render.Renderer, validator portal.Validator, events EventRecorder) *PagesHandler {
	return &PagesHandler{
		renderer:  renderer,
		validator: validator,
		events:    events,
	}
}

// Home handles GET /. Emailed reset links point at /?token=..., so a token
// parameter is forwarded to the reset-password page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	if token := r.URL.Query().Get("token"); token != "" {
		redirect(w, r, RouteResetPassword+"?token="+url.QueryEscape(token))
		return
	}

	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	ctrl.SetView(portal.ViewHome)

	renderPage(w, r, h.renderer, http.StatusOK, "pages/home", render.TemplateData{})
}

// About handles GET /about.
func (h *PagesHandler) About(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	ctrl.SetView(portal.ViewAbout)

	page, err := content.Load("about", middleware.GetLanguage(r))
	if err != nil {
		slog.Error("failed to load about page", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "pages/about", render.TemplateData{
		Title: "page.about.title",
		Data:  page,
	})
}

// ContactData is the contact page data.
type ContactData struct {
	Info content.Page
	Form model.ContactMessage
}

// Contact handles GET /contact.
func (h *PagesHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, http.StatusOK, model.ContactMessage{})
}

func (h *PagesHandler) renderContact(w http.ResponseWriter, r *http.Request, status int, form model.ContactMessage) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	ctrl.SetView(portal.ViewContact)

	info, err := content.Load("contact", middleware.GetLanguage(r))
	if err != nil {
		slog.Error("failed to load contact page", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	renderPage(w, r, h.renderer, status, "pages/contact", render.TemplateData{
		Title: "page.contact.title",
		Data:  ContactData{Info: info, Form: form},
	})
}

// ContactSubmit handles POST /contact. The message is reduced to plain text
// and kept in the event log; there is no mail delivery.
func (h *PagesHandler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteContact) {
		return
	}

	msg := model.ContactMessage{
		Name:    content.PlainText(r.FormValue("name")),
		Email:   content.PlainText(r.FormValue("email")),
		Subject: content.PlainText(r.FormValue("subject")),
		Message: content.PlainText(r.FormValue("message")),
	}

	lang := middleware.GetLanguage(r)
	if h.validator != nil {
		if err := h.validator.Struct(lang, msg); err != nil {
			if ctrl := middleware.GetPortal(r); ctrl != nil {
				ctrl.Notices().Set(err.Error(), model.SeverityError)
			}
			h.renderContact(w, r, http.StatusUnprocessableEntity, msg)
			return
		}
	}

	metadata, _ := json.Marshal(msg)
	if h.events != nil {
		_, err := h.events.CreateEvent(r.Context(), store.CreateEventParams{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategoryContact,
			Message:   "contact message received",
			Metadata:  string(metadata),
			CreatedAt: time.Now(),
		})
		if err != nil {
			slog.Error("failed to store contact message", "category", model.EventCategoryContact, "error", err)
			noticeAndRedirect(w, r, RouteContact, model.SeverityError, "notice.unexpected_error")
			return
		}
	}

	slog.Info("contact message received", "category", model.EventCategoryContact, "email", msg.Email, "subject", msg.Subject)
	noticeAndRedirect(w, r, RouteContact, model.SeveritySuccess, "notice.contact_sent")
}

// Premium handles GET /premium.
func (h *PagesHandler) Premium(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	ctrl.SetView(portal.ViewPremium)

	renderPage(w, r, h.renderer, http.StatusOK, "pages/premium", render.TemplateData{Title: "page.premium.title"})
}

// NotFound renders the 404 page.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, r, http.StatusNotFound)
}

// Forbidden renders the admin access required placeholder.
func (h *PagesHandler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, r, http.StatusForbidden)
}

// MethodNotAllowed renders the 405 page.
func (h *PagesHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, r, http.StatusMethodNotAllowed)
}

// TooManyRequests answers auth form submissions over the rate limit.
func (h *PagesHandler) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, r, http.StatusTooManyRequests)
}

// CSRFFailed answers requests rejected by the CSRF check.
func (h *PagesHandler) CSRFFailed(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusForbidden, "errors/csrf", render.TemplateData{Title: "error.csrf.title"})
}
