package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"visiverse/internal/models"
)

type StateSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewStateSQL(db *sql.DB, dialect Dialect) *StateSQL {
	return &StateSQL{db: db, dialect: dialect}
}

const (
	scanStateRowID = 1

	upsertStateSQL = `
		INSERT INTO scan_state (id, running, files_seen, imported, failed, last_error, last_scan_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			running=excluded.running,
			files_seen=excluded.files_seen,
			imported=excluded.imported,
			failed=excluded.failed,
			last_error=excluded.last_error,
			last_scan_at=excluded.last_scan_at
	`

	selectStateSQL = `
		SELECT id, running, files_seen, imported, failed, last_error, last_scan_at
		FROM scan_state WHERE id = ?
	`
)

// Save updates or inserts the scan_state row (id always 1).
func (r *StateSQL) Save(ctx context.Context, s models.ScanState) error {
	ts := s.LastScanAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, r.dialect.rebind(upsertStateSQL),
		scanStateRowID,
		s.Running,
		s.FilesSeen,
		s.Imported,
		s.Failed,
		nullString(s.LastError),
		ts,
	)
	return err
}

// Load fetches the scan_state row. A library that was never scanned yields the zero state.
func (r *StateSQL) Load(ctx context.Context) (models.ScanState, error) {
	var (
		s       models.ScanState
		lastErr sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(selectStateSQL), scanStateRowID).Scan(
		&s.ID,
		&s.Running,
		&s.FilesSeen,
		&s.Imported,
		&s.Failed,
		&lastErr,
		&s.LastScanAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScanState{}, nil
		}
		return models.ScanState{}, err
	}
	s.LastError = lastErr.String
	s.LastScanAt = s.LastScanAt.UTC()
	return s, nil
}
