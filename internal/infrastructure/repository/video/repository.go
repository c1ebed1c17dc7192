package video

import (
	"context"

	"gorm.io/gorm"

	domain "clipvault/internal/domain/video"
	"clipvault/internal/infrastructure/database/entities"
	"clipvault/internal/utils/platformerrors"
)

// Repository handles video record persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, v *domain.Video) (*domain.Video, error) {
	entity := entities.Video{
		ID:           v.ID,
		StorageKey:   v.StorageKey,
		OriginalName: v.OriginalName,
		MimeType:     v.MimeType,
		SizeBytes:    v.SizeBytes,
		OwnerID:      v.OwnerID,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to insert video record",
			err,
		)
	}
	record := mapEntity(entity)
	return &record, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Video, error) {
	var entity entities.Video
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"video record not found",
				err,
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find video by id",
			err,
		)
	}
	record := mapEntity(entity)
	return &record, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Video, error) {
	var rows []entities.Video
	err := r.db.WithContext(ctx).Order("uploaded_at DESC").Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list video records",
			err,
		)
	}
	records := make([]domain.Video, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapEntity(row))
	}
	return records, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Video{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete video record",
			result.Error,
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"video record not found",
			nil,
		)
	}
	return nil
}

func mapEntity(entity entities.Video) domain.Video {
	return domain.Video{
		ID:           entity.ID,
		StorageKey:   entity.StorageKey,
		OriginalName: entity.OriginalName,
		MimeType:     entity.MimeType,
		SizeBytes:    entity.SizeBytes,
		OwnerID:      entity.OwnerID,
		UploadedAt:   entity.UploadedAt,
	}
}
