package entities

import "time"

// Video represents the persisted video metadata row.
type Video struct {
	ID           string    `gorm:"type:varchar(40);primaryKey"`
	StorageKey   string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	OriginalName string    `gorm:"type:varchar(255);not null"`
	MimeType     string    `gorm:"type:varchar(64);not null"`
	SizeBytes    int64     `gorm:"not null"`
	OwnerID      string    `gorm:"type:varchar(64)"`
	UploadedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (Video) TableName() string {
	return "videos"
}
