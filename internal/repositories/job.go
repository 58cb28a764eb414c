package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sirlizard/language-for-you/internal/lifecycle"
	"sirlizard/language-for-you/internal/models"
)

type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	FindOpen(ctx context.Context, limit int) ([]models.Job, error)
	FindWorking(ctx context.Context, acceptor uuid.UUID) ([]models.Job, error)
	FindHistory(ctx context.Context, requester uuid.UUID) ([]models.Job, error)
	FindByRequester(ctx context.Context, requester uuid.UUID) ([]models.Job, error)
	FindPendingTranslations(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]models.Job, error)
	// Transition writes to only if the row still holds from. It returns
	// ErrConflict when another writer moved the job first.
	Transition(ctx context.Context, id uuid.UUID, from, to lifecycle.State) error
	AverageRating(ctx context.Context, acceptor uuid.UUID) (*float64, error)
	// FileVisibleTo reports whether user is requester or acceptor of a job
	// that references fileID.
	FileVisibleTo(ctx context.Context, fileID, user uuid.UUID) (bool, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Omit("File", "ReturnedFile", "Acceptor").Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("File").
		Preload("ReturnedFile").
		Preload("Acceptor")
}

func (r *jobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.withRelations(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) FindOpen(ctx context.Context, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.withRelations(ctx).
		Where("status = ?", models.StatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) FindWorking(ctx context.Context, acceptor uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := r.withRelations(ctx).
		Where("status = ? AND accepted_by = ?", models.StatusAccepted, acceptor).
		Order("due_date ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list working jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) FindHistory(ctx context.Context, requester uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := r.withRelations(ctx).
		Where("requester_id = ? AND status = ?", requester, models.StatusReturned).
		Order("returned_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job history: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) FindByRequester(ctx context.Context, requester uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := r.withRelations(ctx).
		Where("requester_id = ?", requester).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submitted jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) FindPendingTranslations(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.withRelations(ctx).
		Where("status = ? AND updated_at < ? AND attempts < ?", models.StatusPendingTranslation, olderThan, maxAttempts).
		Order("updated_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending translations: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) Transition(ctx context.Context, id uuid.UUID, from, to lifecycle.State) error {
	updates := lifecycle.Columns(to)
	updates["updated_at"] = time.Now().UTC()

	query := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from.Status())

	switch v := from.(type) {
	case lifecycle.Returned:
		if v.Rating == nil {
			query = query.Where("rating IS NULL")
		}
	case lifecycle.PendingTranslation:
		query = query.Where("attempts = ?", v.Attempts)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update job %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s no longer %s: %w", id, from.Status(), ErrConflict)
	}
	return nil
}

func (r *jobRepository) AverageRating(ctx context.Context, acceptor uuid.UUID) (*float64, error) {
	var row struct {
		Average *float64
	}
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("AVG(rating) AS average").
		Where("accepted_by = ? AND rating IS NOT NULL", acceptor).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	return row.Average, nil
}

func (r *jobRepository) FileVisibleTo(ctx context.Context, fileID, user uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("file_id = ? OR returned_file_id = ?", fileID, fileID).
		Where("requester_id = ? OR accepted_by = ?", user, user).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check file access: %w", err)
	}
	return count > 0, nil
}
