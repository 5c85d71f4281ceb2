package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"visiverse/internal/models"

	"github.com/google/uuid"
)

type CatalogSQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewCatalogSQL(db *sql.DB, dialect Dialect) *CatalogSQL {
	return &CatalogSQL{db: db, dialect: dialect}
}

var _ CatalogRepo = (*CatalogSQL)(nil)

const (
	selectPersonSQL       = `SELECT id, name FROM people WHERE id = ?`
	selectOrganizationSQL = `SELECT id, name FROM organizations WHERE id = ?`
	selectCollectionSQL   = `SELECT id, name, description, type FROM collections WHERE id = ?`
	selectTagsSQL         = `SELECT name FROM tags ORDER BY name ASC`
)

func (r *CatalogSQL) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var p models.Person
	err := scanNamed(r.db.QueryRowContext(ctx, r.dialect.rebind(selectPersonSQL), id.String()), &p.ID, &p.Name)
	if err != nil {
		return nil, notFound(err, "person", id)
	}
	return &p, nil
}

func (r *CatalogSQL) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var o models.Organization
	err := scanNamed(r.db.QueryRowContext(ctx, r.dialect.rebind(selectOrganizationSQL), id.String()), &o.ID, &o.Name)
	if err != nil {
		return nil, notFound(err, "organization", id)
	}
	return &o, nil
}

func (r *CatalogSQL) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	c, err := scanCollection(r.db.QueryRowContext(ctx, r.dialect.rebind(selectCollectionSQL), id.String()))
	if err != nil {
		return nil, notFound(err, "collection", id)
	}
	return c, nil
}

// GetOrCreateTag returns the tag called name, inserting it if it does not exist.
// Names are trimmed; an empty name is rejected.
func (r *CatalogSQL) GetOrCreateTag(ctx context.Context, name string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, errors.New("tag name is empty")
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.rebind(insertTagSQL), name); err != nil {
		return models.Tag{}, fmt.Errorf("insert tag %q: %w", name, err)
	}
	return models.Tag{Name: name}, nil
}

// ListTags returns every known tag sorted by name.
func (r *CatalogSQL) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, selectTagsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Tag, 0, 32)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanCollection(s scanner) (*models.Collection, error) {
	var (
		c    models.Collection
		raw  string
		desc sql.NullString
		typ  string
	)
	if err := s.Scan(&raw, &c.Name, &desc, &typ); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("collection id %q: %w", raw, err)
	}
	c.ID = id
	c.Description = desc.String
	c.Type = models.CollectionType(typ)
	return &c, nil
}

func notFound(err error, kind string, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("select %s %s: %w", kind, id, err)
}
