package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"clipvault/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Video{}); err != nil {
		return err
	}
	log.Info().Msg("applied video migrations")
	return nil
}
