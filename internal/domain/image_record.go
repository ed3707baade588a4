package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImageRecord is the stored reference for an uploaded dish image. The
// binary lives in the bucket under StorageKey; URL is what clients render.
type ImageRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StorageKey string    `gorm:"not null;column:storage_key" json:"storage_key"`
	URL        string    `gorm:"not null;column:url" json:"url"`

	ContentType string `gorm:"column:content_type" json:"content_type"`
	SizeBytes   int64  `gorm:"column:size_bytes" json:"size_bytes"`
	Caption     string `gorm:"column:caption" json:"caption,omitempty"`
	AltText     string `gorm:"column:alt_text" json:"alt_text,omitempty"`

	UploadedBy uuid.UUID `gorm:"type:uuid;index" json:"uploaded_by"`
	UploadedAt time.Time `gorm:"not null;autoCreateTime" json:"uploaded_at"`
}

func (ImageRecord) TableName() string { return "image_record" }
