// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager and keeps the visitor's
// bearer token and portal state in it.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Lifetime is the absolute lifetime of a session.
const Lifetime = 24 * time.Hour

// New creates a session manager backed by the SQLite sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	return NewWithStore(sqlite3store.New(db), isDev)
}

// NewWithStore creates a session manager backed by store.
func NewWithStore(store scs.Store, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		// __Host- cookies are bound to the exact host, HTTPS and path "/".
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}
