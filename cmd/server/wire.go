//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clipvault/internal/config"
	domain "clipvault/internal/domain/video"
	"clipvault/internal/infrastructure/auth"
	"clipvault/internal/infrastructure/database"
	"clipvault/internal/infrastructure/logger"
	repo "clipvault/internal/infrastructure/repository/video"
	"clipvault/internal/infrastructure/stage"
	"clipvault/internal/infrastructure/transcode"
	"clipvault/internal/interfaces/httpserver"
)

var videoSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Repository), new(*repo.Repository)),
	transcode.NewFFmpeg,
	wire.Bind(new(domain.Transcoder), new(*transcode.FFmpeg)),
	stage.New,
	wire.Bind(new(domain.Stage), new(*stage.Stage)),
	newStorage,
	domain.NewService,
)

// BuildApplication assembles the video service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		videoSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}
