package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"clipvault/internal/config"
	domain "clipvault/internal/domain/video"
	"clipvault/internal/infrastructure/auth"
	"clipvault/internal/infrastructure/database"
	"clipvault/internal/infrastructure/logger"
	"clipvault/internal/infrastructure/observability"
	repo "clipvault/internal/infrastructure/repository/video"
	"clipvault/internal/infrastructure/stage"
	"clipvault/internal/infrastructure/storage"
	"clipvault/internal/infrastructure/transcode"
	"clipvault/internal/interfaces/httpserver"
)

// @title Clipvault API
// @version 1.0
// @description Video ingestion, transcoding, and access service
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	storageClient, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	uploadStage, err := stage.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize stage")
	}

	authValidator, err := auth.NewValidator(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	videoRepository := repo.NewRepository(db)
	transcoder := transcode.NewFFmpeg(cfg, log)
	videoService := domain.NewService(cfg, videoRepository, storageClient, transcoder, uploadStage, log)

	httpServer := httpserver.New(cfg, log, videoService, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newStorage creates the object storage backend selected by configuration.
func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.ObjectStorage, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(cfg, log)
	}
	return storage.NewS3Storage(ctx, cfg, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
