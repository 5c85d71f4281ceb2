package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visiverse/internal/handlers"
	"visiverse/internal/logger"
	"visiverse/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background library scanner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, *configFile)
		},
	}
}

func runServe(cmd *cobra.Command, configFile string) error {
	cfg, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Log.Level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := []handlers.Option{handlers.WithMetrics(a.metrics)}
	if cfg.Auth.SessionSecret != "" {
		opts = append(opts, handlers.WithSessions(handlers.NewSessionStore([]byte(cfg.Auth.SessionSecret), cfg.Auth.TokenTTL)))
	} else {
		a.log.Warnw("session_secret not set; cookie sessions disabled")
	}
	apiHandler := handlers.NewHandler(a.services, a.log, opts...)

	scan := startScanner(ctx, a.services.Importer, cfg.Library.ScanInterval)
	// runs before a.Close so the last scan state reaches the database
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := scan.stop(stopCtx); err != nil {
			a.log.Errorw("scanner_stop_timeout", "err", err)
		}
	}()

	srv := server.New(cfg.Server, apiHandler.InitRoutes())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()
	a.log.Infow("server_started", "port", cfg.Server.Port, "db_driver", cfg.DB.Driver, "media_path", cfg.Library.MediaPath)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Infow("shutting down server...")

	// allow in-flight requests to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
