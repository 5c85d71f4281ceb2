package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"visiverse/internal/dbx"
	"visiverse/internal/models"
)

type UserRepository struct {
	db      dbx.DBTX
	dialect Dialect
}

func NewUserRepository(db dbx.DBTX, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Ensure implementation of UserStore interface at compile time.
var _ UserStore = (*UserRepository)(nil)

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash, display_name, description) VALUES (?, ?, ?, ?)`
	selectUserByUsernameSQL = `SELECT username, password_hash, display_name, description FROM users WHERE username = ?`
)

// InsertUser stores a new user. Returns ErrDuplicateKey if the username is taken.
func (r *UserRepository) InsertUser(ctx context.Context, u models.User) error {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertUserSQL),
		u.Username, u.PasswordHash, u.DisplayName, nullString(u.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", u.Username, ErrDuplicateKey)
		}
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return nil
}

// FetchUser loads a user by exact username. Returns ErrNotFound if absent.
func (r *UserRepository) FetchUser(ctx context.Context, username string) (*models.User, error) {
	var (
		u    models.User
		desc sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(selectUserByUsernameSQL), username).
		Scan(&u.Username, &u.PasswordHash, &u.DisplayName, &desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	u.Description = desc.String
	return &u, nil
}

// UpdateUserFields writes the non-nil fields of f. Returns ErrNotFound if no row
// matched username.
func (r *UserRepository) UpdateUserFields(ctx context.Context, username string, f models.UserFields) error {
	if f.Empty() {
		return fmt.Errorf("update user %q: no fields set", username)
	}

	var (
		sets []string
		args []any
	)
	if f.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *f.PasswordHash)
	}
	if f.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *f.DisplayName)
	}
	if f.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*f.Description))
	}
	args = append(args, username)

	q := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE username = ?"
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update user %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %q: %w", username, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
