package service

import (
	"context"
	"time"

	"visiverse/internal/logger"
	"visiverse/internal/metrics"
	"visiverse/internal/models"
	"visiverse/internal/repository"

	"github.com/google/uuid"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (*models.User, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Library exposes read access to the catalog and the paths of stored files.
type Library interface {
	ListMedia(ctx context.Context) ([]models.Media, error)
	MediaInfo(ctx context.Context, id uuid.UUID) (*models.Media, error)
	PersonInfo(ctx context.Context, id uuid.UUID) (*models.Person, error)
	OrganizationInfo(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	CollectionInfo(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	MediaFile(ctx context.Context, id uuid.UUID) (string, error)
	ThumbFile(ctx context.Context, id uuid.UUID) (string, error)
}

// Monitoring exposes the state of the last library scan.
type Monitoring interface {
	GetScanState(ctx context.Context) (models.ScanState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.LibraryEvent, error)
}

// Importer catalogs files from the media directory.
// Stop Run via context cancellation for graceful shutdown.
type Importer interface {
	ImportFile(ctx context.Context, rel string, typ models.MediaType) (models.Media, error)
	Scan(ctx context.Context) (models.ScanState, error)
	Run(ctx context.Context, interval time.Duration)
}

// Authenticator is the credential check used by Authorization.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// Transcoder builds thumbnails and probes video files.
type Transcoder interface {
	ThumbFilename(id uuid.UUID) string
	CreateThumbnail(ctx context.Context, id uuid.UUID, source string) (string, error)
	VideoDuration(ctx context.Context, file string) (int, error)
}

// Root Service aggregates all sub-services.
type Service struct {
	Authorization
	Library
	Monitoring
	EventLog
	Importer
}

// Deps carries everything NewService wires together.
type Deps struct {
	Repos         *repository.Repository
	Authenticator Authenticator
	Transcoder    Transcoder
	Tokens        TokenConfig
	Library       LibraryConfig
	Log           *logger.Logger
	Metrics       *metrics.Metrics
}

func NewService(d Deps) (*Service, error) {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	importer, err := NewImporterService(d.Repos.Media, d.Repos.StateRepo, d.Repos.EventRepo, d.Transcoder, d.Library, log.Named("importer"), d.Metrics)
	if err != nil {
		return nil, err
	}
	return &Service{
		Authorization: NewAuthService(d.Authenticator, d.Tokens),
		Library:       NewLibraryService(d.Repos.Media, d.Repos.Catalog, d.Transcoder, d.Library.MediaPath),
		Monitoring:    NewMonitoringService(d.Repos.StateRepo),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Importer:      importer,
	}, nil
}
