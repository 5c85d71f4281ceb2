package service

import (
	"errors"
	"time"

	"visiverse/internal/repository"
)

// ErrNotFound is returned when the requested catalog entry or file does not exist.
var ErrNotFound = repository.ErrNotFound

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SCAN", "IMPORT", "THUMBNAIL", "ERROR"
}

// TokenConfig controls issued API tokens.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// LibraryConfig locates and filters the media directory.
type LibraryConfig struct {
	MediaPath string
	Include   []string
}

// ErrInvalidFilter is returned by EventLog.List for an inverted range or an
// unknown event type.
var ErrInvalidFilter = errors.New("invalid log filter")
