// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"sync"
	"time"

	"github.com/olegiv/ecole-go/internal/model"
)

// Clock tells the controller the time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NoticeSlot holds at most one notice. Setting a notice replaces the current
// one and restarts its dismissal deadline; an expired notice is never
// returned. The deadline belongs to the notice that set it, so an older
// notice's dismissal can never hide a newer one.
type NoticeSlot struct {
	mu      sync.Mutex
	clock   Clock
	ttl     time.Duration
	notice  model.Notice
	setAt   time.Time
	observe func(model.Severity)
}

// NewNoticeSlot creates an empty slot.
func NewNoticeSlot(clock Clock, ttl time.Duration) *NoticeSlot {
	if clock == nil {
		clock = systemClock{}
	}
	return &NoticeSlot{clock: clock, ttl: ttl}
}

// Set shows message with severity, replacing any current notice.
func (s *NoticeSlot) Set(message string, severity model.Severity) {
	s.mu.Lock()
	s.notice = model.Notice{Visible: true, Message: message, Severity: severity}
	s.setAt = s.clock.Now()
	observe := s.observe
	s.mu.Unlock()

	if observe != nil {
		observe(severity)
	}
}

// Current returns the visible notice, or a zero Notice once dismissed.
func (s *NoticeSlot) Current() model.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked() {
		return model.Notice{}
	}
	return s.notice
}

// Remaining returns how long the current notice stays visible.
func (s *NoticeSlot) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked() {
		return 0
	}
	return s.setAt.Add(s.ttl).Sub(s.clock.Now())
}

// Take returns the visible notice with its remaining time and clears the
// slot, so a rendered notice is not rendered again on the next page.
func (s *NoticeSlot) Take() (model.Notice, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked() {
		s.clearLocked()
		return model.Notice{}, 0
	}
	n, remaining := s.notice, s.setAt.Add(s.ttl).Sub(s.clock.Now())
	s.clearLocked()
	return n, remaining
}

// Dismiss hides the current notice.
func (s *NoticeSlot) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *NoticeSlot) activeLocked() bool {
	return s.notice.Visible && s.clock.Now().Before(s.setAt.Add(s.ttl))
}

func (s *NoticeSlot) clearLocked() {
	s.notice = model.Notice{}
	s.setAt = time.Time{}
}

func (s *NoticeSlot) raw() (model.Notice, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice, s.setAt
}

func (s *NoticeSlot) restore(n model.Notice, setAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice, s.setAt = n, setAt
}
