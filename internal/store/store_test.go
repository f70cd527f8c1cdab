// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/ecole-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ecole-test.db")

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := NewDB(filepath.Join(dir, "ecole.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"sessions", "events"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestPing(t *testing.T) {
	db := testDB(t)

	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	_ = db.Close()
	if err := Ping(context.Background(), db); err == nil {
		t.Error("Ping on a closed database should fail")
	}
}

func TestCreateEvent(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	e, err := q.CreateEvent(ctx, CreateEventParams{
		Level:     model.EventLevelWarning,
		Category:  model.EventCategoryAuth,
		Message:   "login failed",
		Metadata:  `{"email":"a@b.fr"}`,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if e.ID == 0 {
		t.Error("event.ID should not be 0")
	}
	if e.Category != model.EventCategoryAuth {
		t.Errorf("Category = %q, want %q", e.Category, model.EventCategoryAuth)
	}
	if !e.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, now)
	}
}

func TestCreateEvent_RejectsUnknownLevel(t *testing.T) {
	db := testDB(t)

	_, err := New(db).CreateEvent(context.Background(), CreateEventParams{
		Level:     "fatal",
		Category:  model.EventCategorySystem,
		Message:   "x",
		Metadata:  "{}",
		CreatedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected CHECK constraint failure")
	}
}

func TestListEvents(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, msg := range []string{"first", "second", "third"} {
		_, err := q.CreateEvent(ctx, CreateEventParams{
			Level:     model.EventLevelError,
			Category:  model.EventCategoryAPI,
			Message:   msg,
			Metadata:  "{}",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Message != "third" || events[1].Message != "second" {
		t.Errorf("events not newest first: %q, %q", events[0].Message, events[1].Message)
	}

	rest, err := q.ListEvents(ctx, ListEventsParams{Limit: 10, Offset: 2})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(rest) != 1 || rest[0].Message != "first" {
		t.Errorf("second page = %+v", rest)
	}

	n, err := q.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 3 {
		t.Errorf("CountEvents = %d, want 3", n)
	}
}

func TestDeleteEventsBefore(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, time.Hour} {
		_, err := q.CreateEvent(ctx, CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategorySystem,
			Message:   "event",
			Metadata:  "{}",
			CreatedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	deleted, err := q.DeleteEventsBefore(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	n, _ := q.CountEvents(ctx)
	if n != 1 {
		t.Errorf("CountEvents = %d, want 1", n)
	}
}

func TestWithTx(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	_, err = New(db).WithTx(tx).CreateEvent(ctx, CreateEventParams{
		Level: model.EventLevelInfo, Category: model.EventCategorySystem,
		Message: "rolled back", Metadata: "{}", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	n, _ := New(db).CountEvents(ctx)
	if n != 0 {
		t.Errorf("CountEvents = %d after rollback, want 0", n)
	}
}
