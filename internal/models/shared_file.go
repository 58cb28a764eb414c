package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SharedFile is the metadata record of a blob in the shared_files bucket.
type SharedFile struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FilePath    string     `gorm:"type:text;not null;uniqueIndex" json:"file_path"`
	Filename    string     `gorm:"type:text;not null" json:"filename"`
	ContentType *string    `gorm:"type:text" json:"content_type"`
	FileSize    *int64     `json:"file_size"`
	Notes       *string    `gorm:"type:text" json:"notes"`
	SharedWith  StringList `json:"shared_with"`
	UploaderID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"uploader_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (SharedFile) TableName() string {
	return "shared_files"
}

func (f *SharedFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
