package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

var ErrDuplicateLanguage = fmt.Errorf("%w: language already listed", ErrValidation)

const (
	maxUsernameLength       = 64
	maxLanguageEditAttempts = 5
)

type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateProfileRequest) (*models.Profile, error)
	AddLanguage(ctx context.Context, id uuid.UUID, language string) (*models.Profile, error)
	RemoveLanguage(ctx context.Context, id uuid.UUID, language string) (*models.Profile, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, upload Upload) (*models.Profile, error)
	// AvatarURL resolves the stored avatar key to a fetchable URL.
	AvatarURL(ctx context.Context, profile *models.Profile) (string, error)
}

type profileService struct {
	profiles    repositories.ProfileRepository
	store       ObjectStore
	maxFileSize int64
	logger      logging.Logger
}

func NewProfileService(profiles repositories.ProfileRepository, store ObjectStore, maxFileSize int64, logger logging.Logger) ProfileService {
	return &profileService{profiles: profiles, store: store, maxFileSize: maxFileSize, logger: logger}
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profiles.FindByID(ctx, id)
}

func (s *profileService) Update(ctx context.Context, id uuid.UUID, req models.UpdateProfileRequest) (*models.Profile, error) {
	updates := map[string]interface{}{}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" || len(name) > maxUsernameLength {
			return nil, fmt.Errorf("%w: username must be 1-%d characters", ErrValidation, maxUsernameLength)
		}
		updates["username"] = name
	}

	if req.UserType != nil {
		t := models.UserType(strings.ToLower(strings.TrimSpace(*req.UserType)))
		if !t.Valid() {
			return nil, fmt.Errorf("%w: user_type must be %q or %q", ErrValidation, models.UserTypeClient, models.UserTypeLocalizer)
		}
		updates["user_type"] = t
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if err := s.profiles.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.profiles.FindByID(ctx, id)
}

func (s *profileService) AddLanguage(ctx context.Context, id uuid.UUID, language string) (*models.Profile, error) {
	lang, err := NormalizeLanguage("language", language)
	if err != nil {
		return nil, err
	}

	return s.editLanguages(ctx, id, func(current models.StringList) (models.StringList, error) {
		if current.Contains(lang) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLanguage, lang)
		}
		return append(append(models.StringList{}, current...), lang), nil
	})
}

func (s *profileService) RemoveLanguage(ctx context.Context, id uuid.UUID, language string) (*models.Profile, error) {
	lang, err := NormalizeLanguage("language", language)
	if err != nil {
		return nil, err
	}

	return s.editLanguages(ctx, id, func(current models.StringList) (models.StringList, error) {
		if !current.Contains(lang) {
			return nil, fmt.Errorf("language %s: %w", lang, repositories.ErrNotFound)
		}
		return current.Without(lang), nil
	})
}

// editLanguages applies edit to the stored list with a conditional write,
// re-reading and retrying when a concurrent edit got there first.
func (s *profileService) editLanguages(ctx context.Context, id uuid.UUID, edit func(models.StringList) (models.StringList, error)) (*models.Profile, error) {
	for attempt := 1; ; attempt++ {
		profile, err := s.profiles.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		next, err := edit(profile.Languages)
		if err != nil {
			return nil, err
		}

		err = s.profiles.ReplaceLanguages(ctx, id, profile.Languages, next)
		if err == nil {
			return s.profiles.FindByID(ctx, id)
		}
		if !errors.Is(err, repositories.ErrConflict) || attempt == maxLanguageEditAttempts {
			return nil, err
		}
	}
}

func (s *profileService) UploadAvatar(ctx context.Context, id uuid.UUID, upload Upload) (*models.Profile, error) {
	if err := ValidateUpload(upload, s.maxFileSize); err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(upload.Data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image, got %s", ErrValidation, contentType)
	}

	previous, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := BuildObjectKey(id, upload.Filename)
	if err := s.store.Put(ctx, BucketProfilePictures, key, bytes.NewReader(upload.Data), upload.Size(), contentType); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.profiles.Update(ctx, id, map[string]interface{}{"avatar_url": key}); err != nil {
		if delErr := s.store.Delete(ctx, BucketProfilePictures, key); delErr != nil {
			s.logger.Warn(ctx, "failed to remove avatar after update failure", "key", key, "error", delErr)
		}
		return nil, err
	}

	if previous.AvatarURL != nil && *previous.AvatarURL != key {
		if err := s.store.Delete(ctx, BucketProfilePictures, *previous.AvatarURL); err != nil {
			s.logger.Warn(ctx, "failed to remove previous avatar", "key", *previous.AvatarURL, "error", err)
		}
	}

	return s.profiles.FindByID(ctx, id)
}

func (s *profileService) AvatarURL(ctx context.Context, profile *models.Profile) (string, error) {
	if profile.AvatarURL == nil {
		return "", fmt.Errorf("avatar of %s: %w", profile.ID, repositories.ErrNotFound)
	}
	return s.store.URL(ctx, BucketProfilePictures, *profile.AvatarURL)
}
