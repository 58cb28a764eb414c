package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sirlizard/language-for-you/internal/models"
)

type ProfileRepository interface {
	// Ensure creates the profile for id if it does not exist yet.
	Ensure(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateRating(ctx context.Context, id uuid.UUID, rating *float64) error
	// ReplaceLanguages swaps the language list only while it still equals
	// current; otherwise it returns ErrConflict.
	ReplaceLanguages(ctx context.Context, id uuid.UUID, current, next models.StringList) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Ensure(ctx context.Context, id uuid.UUID) error {
	profile := models.Profile{ID: id, Languages: models.StringList{}}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *profileRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating *float64) error {
	return r.Update(ctx, id, map[string]interface{}{"rating": rating})
}

func (r *profileRepository) ReplaceLanguages(ctx context.Context, id uuid.UUID, current, next models.StringList) error {
	expected, err := current.Value()
	if err != nil {
		return fmt.Errorf("failed to encode languages: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND languages = ?", id, expected).
		Updates(map[string]interface{}{"languages": next, "updated_at": time.Now().UTC()})

	if result.Error != nil {
		return fmt.Errorf("failed to update languages: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s languages changed: %w", id, ErrConflict)
	}
	return nil
}
