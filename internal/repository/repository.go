package repository

import (
	"context"
	"database/sql"
	"time"

	"visiverse/internal/models"

	"github.com/google/uuid"
)

// UserStore is the persistence contract of the authenticator.
type UserStore interface {
	FetchUser(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, u models.User) error
	UpdateUserFields(ctx context.Context, username string, f models.UserFields) error
}

type MediaRepo interface {
	Insert(ctx context.Context, m models.Media) (models.Media, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Media, error)
	List(ctx context.Context) ([]models.Media, error)
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type CatalogRepo interface {
	GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	GetOrCreateTag(ctx context.Context, name string) (models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

type StateRepo interface {
	Save(ctx context.Context, s models.ScanState) error
	Load(ctx context.Context) (models.ScanState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.LibraryEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.LibraryEvent, error)
}

type Repository struct {
	Users     UserStore
	Media     MediaRepo
	Catalog   CatalogRepo
	StateRepo StateRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Users:     NewUserRepository(db, dialect),
		Media:     NewMediaSQL(db, dialect),
		Catalog:   NewCatalogSQL(db, dialect),
		StateRepo: NewStateSQL(db, dialect),
		EventRepo: NewEventSQL(db, dialect),
	}
}
