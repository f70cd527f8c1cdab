// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/ecole-go/internal/model"
)

const createEvent = `INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

// CreateEventParams are the columns of a new event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event and returns the stored row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	e := model.Event{
		Level:     arg.Level,
		Category:  arg.Category,
		Message:   arg.Message,
		Metadata:  arg.Metadata,
		CreatedAt: arg.CreatedAt.UTC(),
	}
	row := q.db.QueryRowContext(ctx, createEvent,
		e.Level,
		e.Category,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	err := row.Scan(&e.ID)
	return e, err
}

const listEvents = `SELECT id, level, category, message, metadata, created_at
FROM events
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListEventsParams pages through the event log.
type ListEventsParams struct {
	Limit  int64
	Offset int64
}

// ListEvents returns events, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countEvents = `SELECT COUNT(*) FROM events`

// CountEvents returns the number of stored events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEvents).Scan(&n)
	return n, err
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore removes events older than cutoff and returns how many
// rows were deleted.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
