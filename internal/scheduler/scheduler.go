// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs of the portal: the remote API
// health probe and event log pruning.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ecole-go/internal/api"
)

// Default job schedules.
const (
	ProbeSchedule = "@every 1m"
	PruneSchedule = "15 3 * * *"
)

const jobTimeout = 30 * time.Second

// HealthChecker probes the remote API.
type HealthChecker interface {
	Health(ctx context.Context) (*api.HealthStatus, error)
}

// EventPruner deletes event log rows older than a cutoff.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatusRecorder publishes the probe outcome, e.g. as a gauge.
type StatusRecorder interface {
	SetAPIUp(up bool)
}

// ProbeResult is the outcome of one API health probe.
type ProbeResult struct {
	Up        bool          `json:"up"`
	Message   string        `json:"message,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency_ns"`
}

// JobInfo describes a scheduled job.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run"`
	NextRun  time.Time `json:"next_run"`
}

// Config configures the scheduler. A nil Health disables the probe and a
// nil Events or zero Retention disables pruning.
type Config struct {
	Health    HealthChecker
	Events    EventPruner
	Recorder  StatusRecorder
	Retention time.Duration
	Logger    *slog.Logger
}

type job struct {
	name     string
	schedule string
	entryID  cron.EntryID
}

// Scheduler handles the periodic jobs.
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	health    HealthChecker
	events    EventPruner
	recorder  StatusRecorder
	retention time.Duration
	now       func() time.Time

	mu   sync.RWMutex
	jobs []job

	lastProbe atomic.Pointer[ProbeResult]
}

// New creates a new scheduler instance.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		logger:    logger,
		health:    cfg.Health,
		events:    cfg.Events,
		recorder:  cfg.Recorder,
		retention: cfg.Retention,
		now:       time.Now,
	}
}

// Start registers the configured jobs and starts the cron loop. The first
// probe runs immediately so readiness is known before the first tick.
func (s *Scheduler) Start() error {
	if s.health != nil {
		if err := s.add("api_probe", ProbeSchedule, func(ctx context.Context) {
			s.ProbeAPI(ctx)
		}); err != nil {
			return err
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			s.ProbeAPI(ctx)
		}()
	}

	if s.events != nil && s.retention > 0 {
		if err := s.add("event_prune", PruneSchedule, func(ctx context.Context) {
			if _, err := s.PruneEvents(ctx); err != nil {
				s.logger.Error("failed to prune event log", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

func (s *Scheduler) add(name, schedule string, fn func(ctx context.Context)) error {
	id, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job{name: name, schedule: schedule, entryID: id})
	s.mu.Unlock()
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		out = append(out, JobInfo{
			Name:     j.name,
			Schedule: j.schedule,
			LastRun:  entry.Prev,
			NextRun:  entry.Next,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// ProbeAPI checks the remote API health endpoint and stores the result.
func (s *Scheduler) ProbeAPI(ctx context.Context) ProbeResult {
	start := s.now()
	status, err := s.health.Health(ctx)

	res := ProbeResult{CheckedAt: start, Latency: s.now().Sub(start)}
	switch {
	case err != nil:
		res.Message = err.Error()
	case status.Status != "" && status.Status != "healthy" && status.Status != "ok":
		res.Message = status.Status
	default:
		res.Up = true
		res.Message = status.Message
	}

	prev := s.lastProbe.Swap(&res)
	if s.recorder != nil {
		s.recorder.SetAPIUp(res.Up)
	}

	// Log transitions only, not every tick.
	switch {
	case !res.Up && (prev == nil || prev.Up):
		s.logger.Warn("api health probe failed", "error", res.Message)
	case res.Up && prev != nil && !prev.Up:
		s.logger.Info("api health probe recovered", "latency_ms", res.Latency.Milliseconds())
	}
	return res
}

// LastProbe returns the most recent probe result. ok is false before the
// first probe completes.
func (s *Scheduler) LastProbe() (ProbeResult, bool) {
	p := s.lastProbe.Load()
	if p == nil {
		return ProbeResult{}, false
	}
	return *p, true
}

// PruneEvents deletes event log rows older than the retention period.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.events.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned event log", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}
