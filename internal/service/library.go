package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"visiverse/internal/models"
	"visiverse/internal/repository"

	"github.com/google/uuid"
)

type LibraryService struct {
	media     repository.MediaRepo
	catalog   repository.CatalogRepo
	thumbs    Transcoder
	mediaPath string
}

func NewLibraryService(media repository.MediaRepo, catalog repository.CatalogRepo, thumbs Transcoder, mediaPath string) *LibraryService {
	return &LibraryService{media: media, catalog: catalog, thumbs: thumbs, mediaPath: mediaPath}
}

func (s *LibraryService) ListMedia(ctx context.Context) ([]models.Media, error) {
	return s.media.List(ctx)
}

func (s *LibraryService) MediaInfo(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	return s.media.Get(ctx, id)
}

func (s *LibraryService) PersonInfo(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	return s.catalog.GetPerson(ctx, id)
}

func (s *LibraryService) OrganizationInfo(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return s.catalog.GetOrganization(ctx, id)
}

func (s *LibraryService) CollectionInfo(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	return s.catalog.GetCollection(ctx, id)
}

func (s *LibraryService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.catalog.ListTags(ctx)
}

// MediaFile resolves the on-disk path of media id. Stored filenames are relative to
// the media directory and may not escape it.
func (s *LibraryService) MediaFile(ctx context.Context, id uuid.UUID) (string, error) {
	m, err := s.media.Get(ctx, id)
	if err != nil {
		return "", err
	}
	rel := filepath.FromSlash(m.Filename)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("media %s: filename %q outside library", id, m.Filename)
	}
	return existing(filepath.Join(s.mediaPath, rel))
}

// ThumbFile resolves the thumbnail of media id, if one was generated.
func (s *LibraryService) ThumbFile(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := s.media.Get(ctx, id); err != nil {
		return "", err
	}
	return existing(s.thumbs.ThumbFilename(id))
}

func existing(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", filepath.Base(path), ErrNotFound)
	}
	return path, nil
}
