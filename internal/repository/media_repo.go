package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"visiverse/internal/dbx"
	"visiverse/internal/models"

	"github.com/google/uuid"
)

type MediaSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewMediaSQL(db *sql.DB, dialect Dialect) *MediaSQL {
	return &MediaSQL{db: db, dialect: dialect}
}

var _ MediaRepo = (*MediaSQL)(nil)

const (
	insertMediaSQL = `INSERT INTO media (id, filename, title, description, duration, urls, type) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertTagSQL   = `INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`
	linkTagSQL     = `INSERT INTO media_tags (media_id, tag_name) VALUES (?, ?) ON CONFLICT DO NOTHING`

	selectMediaColumns  = `SELECT id, filename, title, description, duration, urls, type FROM media`
	selectMediaByIDSQL  = selectMediaColumns + ` WHERE id = ?`
	selectAllMediaSQL   = selectMediaColumns + ` ORDER BY title ASC`
	mediaFilenameSQL    = `SELECT COUNT(1) FROM media WHERE filename = ?`
	countMediaSQL       = `SELECT COUNT(1) FROM media`
	selectMediaTagsSQL  = `SELECT tag_name FROM media_tags WHERE media_id = ? ORDER BY tag_name`
	selectMediaPeople   = `SELECT p.id, p.name FROM people p JOIN media_people mp ON mp.person_id = p.id WHERE mp.media_id = ? ORDER BY p.name`
	selectMediaOrgs     = `SELECT o.id, o.name FROM organizations o JOIN media_organizations mo ON mo.organization_id = o.id WHERE mo.media_id = ? ORDER BY o.name`
	selectMediaCollects = `SELECT c.id, c.name, c.description, c.type FROM collections c JOIN media_collections mc ON mc.collection_id = c.id WHERE mc.media_id = ? ORDER BY c.name`
)

// Insert stores m and its tag links in one transaction. A fresh ID is assigned
// when m.ID is zero. Returns ErrDuplicateKey if the filename is already catalogued.
func (r *MediaSQL) Insert(ctx context.Context, m models.Media) (models.Media, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.dialect.rebind(insertMediaSQL),
			m.ID.String(), m.Filename, m.Title, nullString(m.Description),
			nullInt(m.Duration), nullString(m.URLs), string(m.Type),
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateKey
			}
			return err
		}
		for _, tag := range m.Tags {
			if _, err := tx.ExecContext(ctx, r.dialect.rebind(insertTagSQL), tag.Name); err != nil {
				return fmt.Errorf("tag %q: %w", tag.Name, err)
			}
			if _, err := tx.ExecContext(ctx, r.dialect.rebind(linkTagSQL), m.ID.String(), tag.Name); err != nil {
				return fmt.Errorf("link tag %q: %w", tag.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("insert media %q: %w", m.Filename, err)
	}
	return m, nil
}

// Get loads one media item with its tags, people, organizations and collections.
func (r *MediaSQL) Get(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, r.dialect.rebind(selectMediaByIDSQL), id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select media %s: %w", id, err)
	}
	if err := r.loadRelations(ctx, m); err != nil {
		return nil, fmt.Errorf("load relations of media %s: %w", id, err)
	}
	return m, nil
}

// List returns all media ordered by title, without relations.
func (r *MediaSQL) List(ctx context.Context) ([]models.Media, error) {
	rows, err := r.db.QueryContext(ctx, selectAllMediaSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Media, 0, 64)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		m.Tags = []models.Tag{}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsByFilename reports whether filename is already catalogued.
func (r *MediaSQL) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.dialect.rebind(mediaFilenameSQL), filename).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MediaSQL) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countMediaSQL).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *MediaSQL) loadRelations(ctx context.Context, m *models.Media) error {
	id := m.ID.String()

	m.Tags = []models.Tag{}
	if err := r.each(ctx, selectMediaTagsSQL, id, func(rows *sql.Rows) error {
		var t models.Tag
		if err := rows.Scan(&t.Name); err != nil {
			return err
		}
		m.Tags = append(m.Tags, t)
		return nil
	}); err != nil {
		return err
	}

	if err := r.each(ctx, selectMediaPeople, id, func(rows *sql.Rows) error {
		var p models.Person
		if err := scanNamed(rows, &p.ID, &p.Name); err != nil {
			return err
		}
		m.People = append(m.People, p)
		return nil
	}); err != nil {
		return err
	}

	if err := r.each(ctx, selectMediaOrgs, id, func(rows *sql.Rows) error {
		var o models.Organization
		if err := scanNamed(rows, &o.ID, &o.Name); err != nil {
			return err
		}
		m.Organizations = append(m.Organizations, o)
		return nil
	}); err != nil {
		return err
	}

	return r.each(ctx, selectMediaCollects, id, func(rows *sql.Rows) error {
		c, err := scanCollection(rows)
		if err != nil {
			return err
		}
		m.Collections = append(m.Collections, *c)
		return nil
	})
}

func (r *MediaSQL) each(ctx context.Context, q string, arg any, fn func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner) (*models.Media, error) {
	var (
		m        models.Media
		id       string
		desc     sql.NullString
		duration sql.NullInt64
		urls     sql.NullString
		typ      string
	)
	if err := s.Scan(&id, &m.Filename, &m.Title, &desc, &duration, &urls, &typ); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("media id %q: %w", id, err)
	}
	m.ID = parsed
	m.Description = desc.String
	m.URLs = urls.String
	m.Type = models.MediaType(typ)
	if duration.Valid {
		d := int(duration.Int64)
		m.Duration = &d
	}
	return &m, nil
}

func scanNamed(s scanner, id *uuid.UUID, name *string) error {
	var raw string
	if err := s.Scan(&raw, name); err != nil {
		return err
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("id %q: %w", raw, err)
	}
	*id = parsed
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
