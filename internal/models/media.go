package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
)

// ParseMediaType accepts the type names case-insensitively.
func ParseMediaType(s string) (MediaType, error) {
	switch t := MediaType(strings.ToLower(strings.TrimSpace(s))); t {
	case MediaVideo, MediaImage, MediaAudio:
		return t, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

type CollectionType string

const (
	CollectionPlaylist CollectionType = "playlist"
	CollectionSeries   CollectionType = "series"
	CollectionAlbum    CollectionType = "album"
)

// Media is a single catalogued file.
type Media struct {
	ID            uuid.UUID      `json:"id"`
	Filename      string         `json:"filename"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Duration      *int           `json:"duration,omitempty"` // seconds
	URLs          string         `json:"urls,omitempty"`
	Type          MediaType      `json:"type"`
	Tags          []Tag          `json:"tags"`
	People        []Person       `json:"people,omitempty"`
	Organizations []Organization `json:"organizations,omitempty"`
	Collections   []Collection   `json:"collections,omitempty"`
}

type Person struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Organization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Tag struct {
	Name string `json:"name"`
}

type Collection struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        CollectionType `json:"type"`
}
