package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sirlizard/language-for-you/internal/models"
)

type SharedFileRepository interface {
	Create(ctx context.Context, file *models.SharedFile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SharedFile, error)
	// FindOrphans lists files created before olderThan that no job
	// references as original or returned file.
	FindOrphans(ctx context.Context, olderThan time.Time, limit int) ([]models.SharedFile, error)
}

type sharedFileRepository struct {
	db *gorm.DB
}

func NewSharedFileRepository(db *gorm.DB) SharedFileRepository {
	return &sharedFileRepository{db: db}
}

func (r *sharedFileRepository) Create(ctx context.Context, file *models.SharedFile) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create shared file: %w", err)
	}
	return nil
}

func (r *sharedFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.SharedFile, error) {
	var file models.SharedFile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shared file %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find shared file: %w", err)
	}
	return &file, nil
}

func (r *sharedFileRepository) FindOrphans(ctx context.Context, olderThan time.Time, limit int) ([]models.SharedFile, error) {
	referenced := r.db.Model(&models.Job{}).
		Select("1").
		Where("jobs.file_id = shared_files.id OR jobs.returned_file_id = shared_files.id")

	var files []models.SharedFile
	err := r.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Where("NOT EXISTS (?)", referenced).
		Order("created_at ASC").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned files: %w", err)
	}
	return files, nil
}
