package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

// Upload is a file received from a client, held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u Upload) Size() int64 { return int64(len(u.Data)) }

// DetectedContentType prefers the declared type unless it is missing or
// generic.
func (u Upload) DetectedContentType() string {
	ct := strings.TrimSpace(u.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		return http.DetectContentType(u.Data)
	}
	return ct
}

type FileService interface {
	// Store puts the blob in the shared_files bucket and records it.
	Store(ctx context.Context, uploader uuid.UUID, upload Upload, notes *string) (*models.SharedFile, error)
	Get(ctx context.Context, id, caller uuid.UUID) (*models.SharedFile, error)
	Open(ctx context.Context, id, caller uuid.UUID) (*models.SharedFile, io.ReadCloser, error)
	URL(ctx context.Context, id, caller uuid.UUID) (string, error)
	// Read loads a stored file without an access check.
	Read(ctx context.Context, file *models.SharedFile) ([]byte, error)
}

type fileService struct {
	files       repositories.SharedFileRepository
	jobs        repositories.JobRepository
	store       ObjectStore
	maxFileSize int64
	logger      logging.Logger
}

func NewFileService(
	files repositories.SharedFileRepository,
	jobs repositories.JobRepository,
	store ObjectStore,
	maxFileSize int64,
	logger logging.Logger,
) FileService {
	return &fileService{
		files:       files,
		jobs:        jobs,
		store:       store,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// ValidateUpload rejects uploads without a name or content, or above maxSize.
func ValidateUpload(upload Upload, maxSize int64) error {
	if strings.TrimSpace(upload.Filename) == "" {
		return fmt.Errorf("%w: file is required", ErrValidation)
	}
	if upload.Size() == 0 {
		return fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if maxSize > 0 && upload.Size() > maxSize {
		return fmt.Errorf("%w: file exceeds maximum size of %d bytes", ErrValidation, maxSize)
	}
	return nil
}

func (s *fileService) Store(ctx context.Context, uploader uuid.UUID, upload Upload, notes *string) (*models.SharedFile, error) {
	if err := ValidateUpload(upload, s.maxFileSize); err != nil {
		return nil, err
	}

	key := BuildObjectKey(uploader, upload.Filename)
	contentType := upload.DetectedContentType()
	size := upload.Size()

	if err := s.store.Put(ctx, BucketSharedFiles, key, bytes.NewReader(upload.Data), size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	file := &models.SharedFile{
		FilePath:    key,
		Filename:    upload.Filename,
		ContentType: &contentType,
		FileSize:    &size,
		Notes:       notes,
		SharedWith:  models.StringList{},
		UploaderID:  uploader,
	}

	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, BucketSharedFiles, key); delErr != nil {
			s.logger.Warn(ctx, "failed to remove blob after insert failure", "key", key, "error", delErr)
		}
		return nil, err
	}

	return file, nil
}

func (s *fileService) Get(ctx context.Context, id, caller uuid.UUID) (*models.SharedFile, error) {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if file.UploaderID == caller {
		return file, nil
	}

	visible, err := s.jobs.FileVisibleTo(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, fmt.Errorf("%w: file %s", ErrForbidden, id)
	}
	return file, nil
}

func (s *fileService) Open(ctx context.Context, id, caller uuid.UUID) (*models.SharedFile, io.ReadCloser, error) {
	file, err := s.Get(ctx, id, caller)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.store.Get(ctx, BucketSharedFiles, file.FilePath)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("blob of file %s: %w", id, repositories.ErrNotFound)
		}
		return nil, nil, err
	}
	return file, body, nil
}

func (s *fileService) URL(ctx context.Context, id, caller uuid.UUID) (string, error) {
	file, err := s.Get(ctx, id, caller)
	if err != nil {
		return "", err
	}
	return s.store.URL(ctx, BucketSharedFiles, file.FilePath)
}

func (s *fileService) Read(ctx context.Context, file *models.SharedFile) ([]byte, error) {
	body, err := s.store.Get(ctx, BucketSharedFiles, file.FilePath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", file.ID, err)
	}
	return data, nil
}
