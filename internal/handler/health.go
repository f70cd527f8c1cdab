// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/ecole-go/internal/scheduler"
	"github.com/olegiv/ecole-go/internal/store"
)

// Check statuses.
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusUnknown   = "unknown"
	statusDisabled  = "disabled"
)

// ProbeSource reports the latest API probe.
type ProbeSource interface {
	LastProbe() (scheduler.ProbeResult, bool)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	probe     ProbeSource
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. probe may be nil when the
// API probe is disabled.
func NewHealthHandler(db *sql.DB, probe ProbeSource, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		probe:     probe,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Latency   string     `json:"latency,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
}

// Health handles GET /health. The remote API counts as unhealthy only once
// a probe has failed; before the first probe it is unknown.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r)
	apiCheck := h.checkAPI()

	status := HealthStatus{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks: map[string]Check{
			"database": dbCheck,
			"api":      apiCheck,
		},
	}
	code := http.StatusOK
	if dbCheck.Status != statusHealthy || apiCheck.Status == statusUnhealthy {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
		}
	}

	writeJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. Only the local database gates
// readiness: the portal can still serve its public pages while the API is down.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if check := h.checkDatabase(r); check.Status != statusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) checkDatabase(r *http.Request) Check {
	start := time.Now()
	if err := store.Ping(r.Context(), h.db); err != nil {
		slog.Error("health check: database unreachable", "error", err)
		return Check{Status: statusUnhealthy, Message: "database unreachable"}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkAPI() Check {
	if h.probe == nil {
		return Check{Status: statusDisabled}
	}
	res, ok := h.probe.LastProbe()
	if !ok {
		return Check{Status: statusUnknown}
	}

	check := Check{Status: statusHealthy, Latency: res.Latency.String(), CheckedAt: &res.CheckedAt}
	if !res.Up {
		check.Status = statusUnhealthy
		check.Message = res.Message
	}
	return check
}
