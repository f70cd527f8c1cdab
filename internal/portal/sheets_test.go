// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/model"
)

func TestSetFilter_OneCallPerChange(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)

	var got []model.Filter
	f.api.listSheets = func(_ context.Context, filter model.Filter) ([]model.Sheet, error) {
		got = append(got, filter)
		return []model.Sheet{{ID: "s1", Level: filter.Level}}, nil
	}

	ctx := context.Background()
	ce1 := model.Filter{Level: model.LevelCE1}

	require.NoError(t, f.ctrl.SetFilter(ctx, ce1))
	assert.Equal(t, 1, f.api.count("list"))

	require.NoError(t, f.ctrl.SetFilter(ctx, ce1))
	assert.Equal(t, 1, f.api.count("list"), "unchanged filter must not list again")

	both := model.Filter{Level: model.LevelCE1, Subject: model.SubjectMaths}
	require.NoError(t, f.ctrl.SetFilter(ctx, both))
	assert.Equal(t, 2, f.api.count("list"))

	require.NoError(t, f.ctrl.SetFilter(ctx, model.Filter{Level: model.FilterAll, Subject: model.FilterAll}))
	assert.Equal(t, 3, f.api.count("list"))

	require.Len(t, got, 3)
	assert.Equal(t, "level=CE1&subject=math%C3%A9matiques", got[1].Query())
	assert.True(t, got[2].IsZero(), "all/all sends no restriction")
}

func TestSetFilter_AllEqualsEmpty(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)

	err := f.ctrl.SetFilter(context.Background(), model.Filter{Level: model.FilterAll, Subject: model.FilterAll})
	require.NoError(t, err)
	assert.Zero(t, f.api.count("list"), "all/all is the already loaded unfiltered listing")
}

func TestSetFilter_FirstLoadLists(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)
	st := f.ctrl.Snapshot()
	st.SheetsLoaded = false
	f.ctrl.Restore(st)

	require.NoError(t, f.ctrl.SetFilter(context.Background(), model.Filter{}))
	assert.Equal(t, 1, f.api.count("list"))

	_, loaded := f.ctrl.Sheets()
	assert.True(t, loaded)
}

func TestSetFilter_SupersededResponseDiscarded(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.listSheets = func(_ context.Context, filter model.Filter) ([]model.Sheet, error) {
		if filter.Level == model.LevelCE1 {
			close(started)
			<-release
			return []model.Sheet{{ID: "stale", Level: model.LevelCE1}}, nil
		}
		return []model.Sheet{{ID: "fresh", Level: model.LevelCM2}}, nil
	}

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- f.ctrl.SetFilter(ctx, model.Filter{Level: model.LevelCE1})
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first listing never started")
	}

	require.NoError(t, f.ctrl.SetFilter(ctx, model.Filter{Level: model.LevelCM2}))
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first listing never returned")
	}

	sheets, loaded := f.ctrl.Sheets()
	assert.True(t, loaded)
	require.Len(t, sheets, 1)
	assert.Equal(t, "fresh", sheets[0].ID, "the response of the latest filter wins")
	assert.Equal(t, model.LevelCM2, f.ctrl.Filter().Level)
	assert.Equal(t, 2, f.api.count("list"))
}

func TestSetFilter_FailureKeepsPreviousSheets(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)

	f.api.listSheets = func(context.Context, model.Filter) ([]model.Sheet, error) {
		return []model.Sheet{{ID: "s1"}}, nil
	}
	require.NoError(t, f.ctrl.RefreshSheets(context.Background()))

	f.api.listSheets = func(context.Context, model.Filter) ([]model.Sheet, error) {
		return nil, errors.New("connection reset")
	}
	err := f.ctrl.SetFilter(context.Background(), model.Filter{Subject: model.SubjectFrench})
	require.Error(t, err)

	sheets, _ := f.ctrl.Sheets()
	require.Len(t, sheets, 1)
	assert.Equal(t, "s1", sheets[0].ID)

	n := f.ctrl.Notices().Current()
	assert.Equal(t, model.SeverityError, n.Severity)
	assert.Equal(t, msg("notice.sheets_load_failed"), n.Message)
	assert.True(t, f.ctrl.IsAuthenticated(), "a non-401 failure keeps the session")
}

func TestRefreshSheets_UnauthorizedExpiresSession(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)
	f.api.listSheets = func(context.Context, model.Filter) ([]model.Sheet, error) {
		return nil, apiErr(401, "Invalid token")
	}

	err := f.ctrl.RefreshSheets(context.Background())
	require.Error(t, err)
	assert.Nil(t, f.ctrl.User())
	assert.Empty(t, f.tokens.token)
	assert.Equal(t, msg("notice.session_expired"), f.ctrl.Notices().Current().Message)
}

func TestRefreshSheets_ForbiddenKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)
	f.api.listSheets = func(context.Context, model.Filter) ([]model.Sheet, error) {
		return nil, apiErr(403, "Forbidden")
	}

	require.Error(t, f.ctrl.RefreshSheets(context.Background()))
	assert.True(t, f.ctrl.IsAuthenticated())
	assert.Equal(t, "Forbidden", f.ctrl.Notices().Current().Message)
}

func TestRefreshSheets_SignedOut(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.RefreshSheets(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, f.api.total())
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	f.signedIn(teacher)
	f.api.download = func(fileURL string) (*api.File, error) {
		assert.Equal(t, "/api/files/abc.pdf", fileURL)
		return &api.File{
			Name:        "abc.pdf",
			ContentType: "application/pdf",
			Body:        io.NopCloser(strings.NewReader("%PDF-1.4")),
		}, nil
	}

	file, err := f.ctrl.Download(context.Background(), "/api/files/abc.pdf")
	require.NoError(t, err)
	defer file.Body.Close()

	body, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestDownload_Failure(t *testing.T) {
	f := newFixture(t)
	f.signedIn(parent)
	f.api.download = func(string) (*api.File, error) { return nil, apiErr(404, "File not found") }

	_, err := f.ctrl.Download(context.Background(), "/api/files/missing.pdf")
	require.Error(t, err)
	assert.Equal(t, msg("notice.download_failed"), f.ctrl.Notices().Current().Message)
}

func TestDownload_SignedOut(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.Download(context.Background(), "/api/files/abc.pdf")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, f.api.total())
	assert.Equal(t, msg("notice.login_required"), f.ctrl.Notices().Current().Message)
}
