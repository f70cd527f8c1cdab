// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ecole-go/internal/middleware"
	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/render"
	"github.com/olegiv/ecole-go/internal/util"
)

// AuthHandler handles sign-in, registration and password recovery.
type AuthHandler struct {
	renderer        *render.Renderer
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(renderer *render.Renderer, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		loginProtection: lp,
	}
}

// AuthData is the auth page data.
type AuthData struct {
	Mode  portal.AuthMode
	Email string
}

// AuthForm handles GET /auth. Signed-in visitors are sent to the dashboard.
func (h *AuthHandler) AuthForm(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}
	if ctrl.IsAuthenticated() {
		redirect(w, r, RouteDashboard)
		return
	}

	if mode := portal.AuthMode(r.URL.Query().Get("mode")); mode.IsValid() {
		ctrl.ShowAuth(mode)
	} else {
		ctrl.ShowAuth(ctrl.AuthMode())
	}

	renderPage(w, r, h.renderer, http.StatusOK, "pages/auth", render.TemplateData{
		Title: "page.auth.title",
		Data:  AuthData{Mode: ctrl.AuthMode()},
	})
}

func (h *AuthHandler) renderAuth(w http.ResponseWriter, r *http.Request, ctrl *portal.Controller, status int, email string) {
	renderPage(w, r, h.renderer, status, "pages/auth", render.TemplateData{
		Title: "page.auth.title",
		View:  string(portal.ViewAuth),
		Data:  AuthData{Mode: ctrl.AuthMode(), Email: email},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteAuth) {
		return
	}
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	creds := model.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	ctrl.ShowAuth(portal.AuthLogin)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(creds.Email); locked {
			slog.Warn("login attempt on locked account", "email", creds.Email, "ip", util.ClientIP(r))
			notify(r, model.SeverityError, "notice.too_many_attempts", remaining.Round(time.Minute).String())
			h.renderAuth(w, r, ctrl, http.StatusTooManyRequests, creds.Email)
			return
		}
	}

	if err := ctrl.Login(r.Context(), creds); err != nil {
		if h.loginProtection != nil && !errors.Is(err, portal.ErrValidation) {
			if locked, d := h.loginProtection.RecordFailedAttempt(creds.Email); locked {
				notify(r, model.SeverityError, "notice.too_many_attempts", d.String())
			}
		}
		h.renderAuth(w, r, ctrl, http.StatusUnprocessableEntity, creds.Email)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(creds.Email)
	}
	redirect(w, r, RouteDashboard)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteAuth+"?mode=register") {
		return
	}
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	reg := model.Registration{
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		UserType:  model.UserType(r.FormValue("user_type")),
	}
	ctrl.ShowAuth(portal.AuthRegister)

	if err := ctrl.Register(r.Context(), reg); err != nil {
		h.renderAuth(w, r, ctrl, http.StatusUnprocessableEntity, reg.Email)
		return
	}
	redirect(w, r, RouteDashboard)
}

// ForgotPassword handles POST /auth/forgot-password. The answer is the same
// whether or not the address is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteAuth+"?mode=forgot") {
		return
	}
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	ctrl.ShowAuth(portal.AuthForgot)
	if err := ctrl.ForgotPassword(r.Context(), email); err != nil {
		h.renderAuth(w, r, ctrl, http.StatusUnprocessableEntity, email)
		return
	}
	redirect(w, r, RouteAuth+"?mode=login")
}

// ResetPasswordForm handles GET /reset-password. A token in the query is
// stored and the URL is redirected to drop it from history and referrers.
func (h *AuthHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	if token := r.URL.Query().Get("token"); token != "" {
		ctrl.SetResetToken(token)
		redirect(w, r, RouteResetPassword)
		return
	}

	if ctrl.ResetToken() == "" {
		noticeAndRedirect(w, r, RouteAuth+"?mode=forgot", model.SeverityError, "notice.reset_missing_token")
		return
	}

	ctrl.SetView(portal.ViewResetPassword)
	renderPage(w, r, h.renderer, http.StatusOK, "pages/reset_password", render.TemplateData{
		Title: "page.reset_password.title",
		Data:  model.MinPasswordLength,
	})
}

// ResetPassword handles POST /reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteResetPassword) {
		return
	}
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	if err := ctrl.ResetPassword(r.Context(), r.FormValue("new_password")); err != nil {
		if ctrl.ResetToken() == "" {
			redirect(w, r, RouteAuth+"?mode=forgot")
			return
		}
		redirect(w, r, RouteResetPassword)
		return
	}
	redirect(w, r, RouteAuth+"?mode=login")
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := controller(w, r, h.renderer)
	if !ok {
		return
	}

	if err := ctrl.Logout(r.Context()); err != nil {
		slog.Error("logout did not clear the token", "error", err)
	}
	redirect(w, r, RouteRoot)
}
