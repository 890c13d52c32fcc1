package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishkalaria12/answer-images/config"
	"github.com/krishkalaria12/answer-images/database"
	handler "github.com/krishkalaria12/answer-images/handlers"
	"github.com/krishkalaria12/answer-images/models"
	"github.com/krishkalaria12/answer-images/router"
	"github.com/krishkalaria12/answer-images/services"
	"github.com/krishkalaria12/answer-images/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	// close the database connection
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("closing the database connection")
		}
	}()

	// Run migrations
	if err := database.MigrateModels(db, &models.AnswerImage{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := context.Background()
	blobs, memory, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close()
	}

	svc := services.NewImageUploadService(db, blobs, cfg.BlobContainer)
	if _, err := svc.EnsureContainer(ctx); err != nil {
		return err
	}

	opts := router.Options{
		BodyLimit:    cfg.MaxUploadBytes,
		CookieSecure: cfg.CookieSecure,
		MemoryBlobs:  memory,
	}
	app := router.NewApp(opts)
	router.SetupRoutes(app, handler.NewAnswerImagesHandler(svc), opts)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("server is listening at port %d", cfg.Port)
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	case err := <-errCh:
		return err
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.Store, *storage.MemoryStore, error) {
	switch cfg.BlobBackend {
	case config.BackendAzure:
		s, err := storage.NewAzureStore(cfg.AzureConnectionString)
		return s, nil, err
	case config.BackendGCS:
		s, err := storage.NewGCSStore(ctx, cfg.GCSProjectID)
		return s, nil, err
	default:
		m := storage.NewMemoryStore(cfg.PublicBaseURL)
		return m, m, nil
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}
