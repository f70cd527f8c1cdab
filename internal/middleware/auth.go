// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys.
const (
	ContextKeyPortal   ContextKey = "portal"
	ContextKeyLanguage ContextKey = "language"
	ContextKeyDevice   ContextKey = "device"
)

// PortalConfig configures the Portal middleware.
type PortalConfig struct {
	Sessions *scs.SessionManager
	API      portal.API

	// Options are applied to every controller, before the request language.
	Options []portal.Option

	// ProfileTTL is how long a cached profile is trusted before it is fetched again.
	ProfileTTL time.Duration

	Logger *slog.Logger
}

// Portal builds the visitor's controller from the session snapshot, puts it
// in the request context and saves the snapshot back before the response
// starts. It must run inside the session and Language middleware.
func Portal(cfg PortalConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokens := session.NewTokenStore(cfg.Sessions)
	states := session.NewStateStore(cfg.Sessions)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			opts := append(cfg.Options[:len(cfg.Options):len(cfg.Options)], portal.WithLanguage(GetLanguage(r)))
			ctrl := portal.New(cfg.API, tokens, opts...)

			st, ok, err := states.Load(ctx)
			if err != nil {
				logger.Warn("discarding unreadable portal state", "error", err)
				states.Clear(ctx)
			}
			if ok {
				ctrl.Restore(st)
				err = ctrl.Resume(ctx, cfg.ProfileTTL)
			} else {
				err = ctrl.Start(ctx)
			}
			if err != nil && !errors.Is(err, portal.ErrSessionExpired) {
				logger.Error("failed to load portal session", "error", err)
			}

			sw := &snapshotWriter{ResponseWriter: w, save: func() {
				if err := states.Save(ctx, ctrl.Snapshot()); err != nil {
					logger.Error("failed to save portal state", "error", err)
				}
			}}

			next.ServeHTTP(sw, r.WithContext(WithPortal(ctx, ctrl)))
			sw.flush()
		})
	}
}

// snapshotWriter runs save once, before the first byte of the response.
// The session middleware commits on the first write, so saving later would
// lose the state of this request.
type snapshotWriter struct {
	http.ResponseWriter
	save func()
	once sync.Once
}

func (sw *snapshotWriter) flush() {
	sw.once.Do(sw.save)
}

func (sw *snapshotWriter) WriteHeader(code int) {
	sw.flush()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *snapshotWriter) Write(b []byte) (int, error) {
	sw.flush()
	return sw.ResponseWriter.Write(b)
}

func (sw *snapshotWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// WithPortal returns a copy of ctx carrying ctrl.
func WithPortal(ctx context.Context, ctrl *portal.Controller) context.Context {
	return context.WithValue(ctx, ContextKeyPortal, ctrl)
}

// GetPortal returns the visitor's controller, or nil outside the Portal middleware.
func GetPortal(r *http.Request) *portal.Controller {
	ctrl, _ := r.Context().Value(ContextKeyPortal).(*portal.Controller)
	return ctrl
}

// RequireSession redirects signed-out visitors to the login form with the
// login-required notice.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctrl := GetPortal(r)
		if ctrl == nil || !ctrl.IsAuthenticated() {
			if ctrl != nil {
				ctrl.ShowAuth(portal.AuthLogin)
				ctrl.Notices().Set(i18n.T(GetLanguage(r), "notice.login_required"), model.SeverityError)
			}
			http.Redirect(w, r, "/auth?mode=login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin answers non-admin visitors with forbidden. It is a display
// gate only; the API enforces admin rights on every call.
func RequireAdmin(forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctrl := GetPortal(r)
			if ctrl == nil || !ctrl.IsAdmin() {
				user := "anonymous"
				if ctrl != nil && ctrl.User() != nil {
					user = ctrl.User().ID
				}
				slog.Warn("admin access denied", "category", model.EventCategoryAdmin, "user_id", user, "path", r.URL.Path)
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
