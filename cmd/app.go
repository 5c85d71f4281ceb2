package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"visiverse/internal/auth"
	"visiverse/internal/config"
	"visiverse/internal/logger"
	"visiverse/internal/metrics"
	"visiverse/internal/password"
	"visiverse/internal/repository"
	repodb "visiverse/internal/repository/db"
	"visiverse/internal/service"
	"visiverse/internal/transcoder"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *sql.DB
	repos    *repository.Repository
	metrics  *metrics.Metrics
	services *service.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	for _, dir := range []string{cfg.Library.MediaPath, cfg.Storage.Path} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	db, dialect, err := repodb.InitDB(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	repos := repository.NewRepository(db, dialect)
	m := metrics.New()

	hasher, err := password.NewArgon2(cfg.Auth.Hash.Params())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	authn, err := auth.NewAuthenticator(repos.Users, hasher,
		auth.WithLogger(log.Named("auth")),
		auth.WithMetrics(m),
		auth.WithMaxConcurrent(cfg.Auth.Hash.MaxConcurrent),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	services, err := service.NewService(service.Deps{
		Repos:         repos,
		Authenticator: authn,
		Transcoder:    transcoder.New(cfg.Transcoder, cfg.Storage),
		Tokens:        service.TokenConfig{Secret: []byte(cfg.Auth.TokenSecret), TTL: cfg.Auth.TokenTTL},
		Library:       service.LibraryConfig{MediaPath: cfg.Library.MediaPath, Include: cfg.Library.Include},
		Log:           log,
		Metrics:       m,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, repos: repos, metrics: m, services: services}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Errorw("failed to close db", "err", err)
	}
	_ = a.log.Sync()
}
