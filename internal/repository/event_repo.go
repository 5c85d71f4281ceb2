package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"visiverse/internal/models"

	"github.com/google/uuid"
)

type EventSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewEventSQL(db *sql.DB, dialect Dialect) *EventSQL { return &EventSQL{db: db, dialect: dialect} }

const (
	insertEventSQL  = `INSERT INTO library_events (id, occurred_at, type, message, meta) VALUES (?, ?, ?, ?, ?)`
	selectEventsSQL = `SELECT id, occurred_at, type, message, meta FROM library_events`
)

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQL) Append(ctx context.Context, e models.LibraryEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var meta sql.NullString
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = sql.NullString{String: string(b), Valid: true}
		}
	}

	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertEventSQL),
		e.EventID,
		e.OccurredAt,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		meta,
	)
	return err
}

// eventQuery accumulates WHERE clauses with their arguments.
type eventQuery struct {
	conds []string
	args  []any
}

func (q *eventQuery) where(cond string, arg any) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, arg)
}

func (q *eventQuery) sql() string {
	out := selectEventsSQL
	if len(q.conds) > 0 {
		out += " WHERE " + strings.Join(q.conds, " AND ")
	}
	return out + " ORDER BY occurred_at ASC"
}

// List returns events in [from, to] of the given type, oldest first. Zero bounds
// and an empty type do not filter.
func (r *EventSQL) List(ctx context.Context, from, to time.Time, typ string) ([]models.LibraryEvent, error) {
	var q eventQuery
	if !from.IsZero() {
		q.where("occurred_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q.where("occurred_at <= ?", to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		q.where("type = ?", typ)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q.sql()), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LibraryEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanEvent(rows *sql.Rows) (models.LibraryEvent, error) {
	var (
		ev   models.LibraryEvent
		meta sql.NullString
	)
	if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
		return ev, err
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	ev.Metadata = decodeMeta(meta)
	return ev, nil
}

// decodeMeta returns the decoded JSON, or the raw text when it does not parse.
func decodeMeta(meta sql.NullString) any {
	if !meta.Valid || meta.String == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(meta.String), &v); err != nil {
		return meta.String
	}
	return v
}
