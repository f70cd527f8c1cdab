package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/store"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "logging-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []model.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 50})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantCount int
		wantLevel string
	}{
		{"error", func(l *slog.Logger) { l.Error("api unreachable", "status", 502) }, 1, model.EventLevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow api response", "duration_ms", 5000) }, 1, model.EventLevelWarning},
		{"info", func(l *slog.Logger) { l.Info("user logged in") }, 0, ""},
		{"debug", func(l *slog.Logger) { l.Debug("listing sheets") }, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			if len(events) != tt.wantCount {
				t.Fatalf("expected %d events, got %d", tt.wantCount, len(events))
			}
			if tt.wantCount > 0 && events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("premium subscription activated")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != model.EventLevelInfo {
		t.Errorf("Level = %q, want %q", events[0].Level, model.EventLevelInfo)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"login failed", model.EventCategoryAuth},
		{"session expired", model.EventCategoryAuth},
		{"CSRF validation failed", model.EventCategoryAuth},
		{"failed to load admin stats", model.EventCategoryAdmin},
		{"sheet download failed", model.EventCategorySheet},
		{"api health probe failed", model.EventCategoryAPI},
		{"contact message received", model.EventCategoryContact},
		{"server shutdown timed out", model.EventCategorySystem},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			db := testDB(t)
			slog.New(NewEventLogHandler(discardHandler{}, db)).Warn(tt.msg)

			events := listEvents(t, db)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Category != tt.want {
				t.Errorf("Category = %q, want %q", events[0].Category, tt.want)
			}
		})
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Warn("login failed", "category", model.EventCategoryContact)

	events := listEvents(t, db)
	if events[0].Category != model.EventCategoryContact {
		t.Errorf("Category = %q, want %q", events[0].Category, model.EventCategoryContact)
	}
	if events[0].Metadata != "{}" {
		t.Errorf("Metadata = %q, category must not be repeated", events[0].Metadata)
	}
}

func TestEventLogHandler_Metadata(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Error("sheet creation failed", "title", `Les "fractions"`, "lines", "a\nb")

	var meta map[string]string
	if err := json.Unmarshal([]byte(listEvents(t, db)[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["title"] != `Les "fractions"` {
		t.Errorf("title = %q", meta["title"])
	}
	if meta["lines"] != "a\nb" {
		t.Errorf("lines = %q", meta["lines"])
	}
}

func TestEventLogHandler_WithAttrs(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("category", model.EventCategoryAdmin, "request_id", "r-1")

	logger.Warn("something odd")

	e := listEvents(t, db)[0]
	if e.Category != model.EventCategoryAdmin {
		t.Errorf("Category = %q, want %q", e.Category, model.EventCategoryAdmin)
	}

	var meta map[string]string
	_ = json.Unmarshal([]byte(e.Metadata), &meta)
	if meta["request_id"] != "r-1" {
		t.Errorf("request_id = %q, want r-1", meta["request_id"])
	}
}

func TestEventLogHandler_WithGroup(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).WithGroup("api")

	logger.Warn("api call failed", "status", 500)

	var meta map[string]string
	_ = json.Unmarshal([]byte(listEvents(t, db)[0].Metadata), &meta)
	if meta["api.status"] != "500" {
		t.Errorf("metadata = %v, want api.status=500", meta)
	}
}

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}

	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
