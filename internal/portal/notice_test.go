// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/ecole-go/internal/model"
)

func TestNoticeSlot_LatestWriteWins(t *testing.T) {
	clock := newFakeClock()
	s := NewNoticeSlot(clock, 5*time.Second)

	s.Set("first", model.SeverityInfo)
	s.Set("second", model.SeverityError)

	n := s.Current()
	assert.True(t, n.Visible)
	assert.Equal(t, "second", n.Message)
	assert.Equal(t, model.SeverityError, n.Severity)
}

func TestNoticeSlot_AutoDismiss(t *testing.T) {
	clock := newFakeClock()
	s := NewNoticeSlot(clock, 5*time.Second)

	s.Set("saved", model.SeveritySuccess)
	clock.Advance(4 * time.Second)
	assert.True(t, s.Current().Visible)
	assert.Equal(t, time.Second, s.Remaining())

	clock.Advance(time.Second)
	assert.False(t, s.Current().Visible)
	assert.Zero(t, s.Remaining())
}

func TestNoticeSlot_OlderDeadlineCannotHideNewer(t *testing.T) {
	clock := newFakeClock()
	s := NewNoticeSlot(clock, 5*time.Second)

	s.Set("first", model.SeverityInfo)
	clock.Advance(3 * time.Second)
	s.Set("second", model.SeveritySuccess)

	// first notice's deadline passes
	clock.Advance(3 * time.Second)
	n := s.Current()
	assert.True(t, n.Visible)
	assert.Equal(t, "second", n.Message)
	assert.Equal(t, 2*time.Second, s.Remaining())
}

func TestNoticeSlot_Take(t *testing.T) {
	clock := newFakeClock()
	s := NewNoticeSlot(clock, 5*time.Second)

	s.Set("hello", model.SeverityInfo)
	clock.Advance(2 * time.Second)

	n, remaining := s.Take()
	assert.Equal(t, "hello", n.Message)
	assert.Equal(t, 3*time.Second, remaining)

	n, remaining = s.Take()
	assert.False(t, n.Visible, "a taken notice is gone")
	assert.Zero(t, remaining)
}

func TestNoticeSlot_TakeExpired(t *testing.T) {
	clock := newFakeClock()
	s := NewNoticeSlot(clock, 5*time.Second)

	s.Set("old", model.SeverityInfo)
	clock.Advance(time.Minute)

	n, _ := s.Take()
	assert.False(t, n.Visible)
}

func TestNoticeSlot_Dismiss(t *testing.T) {
	s := NewNoticeSlot(newFakeClock(), 5*time.Second)
	s.Set("hello", model.SeverityInfo)
	s.Dismiss()
	assert.Equal(t, model.Notice{}, s.Current())
}

func TestNoticeSlot_Observer(t *testing.T) {
	var seen []model.Severity
	f := newFixture(t, WithNoticeObserver(func(sev model.Severity) { seen = append(seen, sev) }))

	f.ctrl.Notices().Set("a", model.SeverityInfo)
	f.ctrl.Notices().Set("b", model.SeverityError)
	assert.Equal(t, []model.Severity{model.SeverityInfo, model.SeverityError}, seen)
}

func TestController_NoticeTTL(t *testing.T) {
	f := newFixture(t, WithNoticeTTL(time.Second))
	f.ctrl.Notices().Set("short", model.SeverityInfo)

	f.clock.Advance(time.Second)
	assert.False(t, f.ctrl.Notices().Current().Visible)
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	assert.True(t, tokenExpired(signedJWT(t, now.Add(-time.Second)), now))
	assert.True(t, tokenExpired(signedJWT(t, now), now))
	assert.False(t, tokenExpired(signedJWT(t, now.Add(time.Hour)), now))
	assert.False(t, tokenExpired("opaque-session-token", now))
	assert.False(t, tokenExpired("", now))
}
