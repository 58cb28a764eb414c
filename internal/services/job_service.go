package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/lifecycle"
	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

const openJobsLimit = 100

type SubmitJobInput struct {
	Language string
	Notes    *string
	File     Upload
}

type JobService interface {
	Quote(language string, sizeBytes int64) (*models.QuoteResponse, error)
	Submit(ctx context.Context, caller uuid.UUID, input SubmitJobInput) (*models.Job, error)
	Get(ctx context.Context, id, caller uuid.UUID) (*models.Job, error)
	ListOpen(ctx context.Context) ([]models.Job, error)
	ListWorking(ctx context.Context, caller uuid.UUID) ([]models.Job, error)
	ListHistory(ctx context.Context, caller uuid.UUID) ([]models.Job, error)
	ListSubmitted(ctx context.Context, caller uuid.UUID) ([]models.Job, error)
	Accept(ctx context.Context, id, caller uuid.UUID) (*models.Job, error)
	Return(ctx context.Context, id, caller uuid.UUID, upload Upload) (*models.Job, error)
	Rate(ctx context.Context, id, caller uuid.UUID, rating int) (*models.Job, error)
}

type jobService struct {
	jobs     repositories.JobRepository
	profiles repositories.ProfileRepository
	files    FileService
	pricer   *Pricer
	logger   logging.Logger
	now      func() time.Time
}

func NewJobService(
	jobs repositories.JobRepository,
	profiles repositories.ProfileRepository,
	files FileService,
	pricer *Pricer,
	logger logging.Logger,
) JobService {
	return &jobService{
		jobs:     jobs,
		profiles: profiles,
		files:    files,
		pricer:   pricer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *jobService) Quote(language string, sizeBytes int64) (*models.QuoteResponse, error) {
	lang, err := NormalizeLanguage("language", language)
	if err != nil {
		return nil, err
	}

	amount, err := s.pricer.Quote(sizeBytes)
	if err != nil {
		return nil, err
	}

	return &models.QuoteResponse{Language: lang, SizeBytes: sizeBytes, PaymentAmount: amount}, nil
}

func (s *jobService) Submit(ctx context.Context, caller uuid.UUID, input SubmitJobInput) (*models.Job, error) {
	lang, err := NormalizeLanguage("language", input.Language)
	if err != nil {
		return nil, err
	}

	amount, err := s.pricer.Quote(input.File.Size())
	if err != nil {
		return nil, err
	}

	file, err := s.files.Store(ctx, caller, input.File, input.Notes)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		RequesterID:   caller,
		Language:      lang,
		PaymentAmount: amount,
		FileID:        file.ID,
	}
	lifecycle.ApplyTo(job, lifecycle.Open{})

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "job submitted", "job_id", job.ID, "language", lang, "payment_amount", amount)
	return s.jobs.FindByID(ctx, job.ID)
}

// Get returns open jobs to anyone and other jobs to their requester or
// acceptor.
func (s *jobService) Get(ctx context.Context, id, caller uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.Status == models.StatusOpen || job.RequesterID == caller ||
		(job.AcceptedBy != nil && *job.AcceptedBy == caller) {
		return job, nil
	}
	return nil, fmt.Errorf("%w: job %s", ErrForbidden, id)
}

func (s *jobService) ListOpen(ctx context.Context) ([]models.Job, error) {
	return s.jobs.FindOpen(ctx, openJobsLimit)
}

func (s *jobService) ListWorking(ctx context.Context, caller uuid.UUID) ([]models.Job, error) {
	return s.jobs.FindWorking(ctx, caller)
}

func (s *jobService) ListHistory(ctx context.Context, caller uuid.UUID) ([]models.Job, error) {
	return s.jobs.FindHistory(ctx, caller)
}

func (s *jobService) ListSubmitted(ctx context.Context, caller uuid.UUID) ([]models.Job, error) {
	return s.jobs.FindByRequester(ctx, caller)
}

func (s *jobService) load(ctx context.Context, id uuid.UUID) (*models.Job, lifecycle.State, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	state, err := lifecycle.FromJob(job)
	if err != nil {
		return nil, nil, err
	}
	return job, state, nil
}

func (s *jobService) Accept(ctx context.Context, id, caller uuid.UUID) (*models.Job, error) {
	_, from, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := lifecycle.Accept(from, caller, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Transition(ctx, id, from, to); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "job accepted", "job_id", id, "acceptor", caller)
	return s.jobs.FindByID(ctx, id)
}

func (s *jobService) Return(ctx context.Context, id, caller uuid.UUID, upload Upload) (*models.Job, error) {
	_, from, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Check the guard before the upload so a rejected return stores nothing.
	if err := lifecycle.CanReturn(from, caller); err != nil {
		return nil, err
	}

	file, err := s.files.Store(ctx, caller, upload, nil)
	if err != nil {
		return nil, err
	}

	to, err := lifecycle.Return(from, caller, file.ID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Transition(ctx, id, from, to); err != nil {
		s.logger.Warn(ctx, "returned file left unreferenced", "job_id", id, "file_id", file.ID, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "job returned", "job_id", id, "returned_file_id", file.ID)
	return s.jobs.FindByID(ctx, id)
}

func (s *jobService) Rate(ctx context.Context, id, caller uuid.UUID, rating int) (*models.Job, error) {
	job, from, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.RequesterID != caller {
		return nil, fmt.Errorf("%w: only the requester may rate job %s", ErrForbidden, id)
	}

	to, err := lifecycle.Rate(from, rating)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Transition(ctx, id, from, to); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, &lifecycle.TransitionError{Event: lifecycle.EventRate, From: from.Status(), Err: lifecycle.ErrAlreadyRated}
		}
		return nil, err
	}

	acceptor := to.(lifecycle.Returned).Acceptor
	if err := s.refreshRating(ctx, acceptor); err != nil {
		s.logger.Error(ctx, "failed to refresh acceptor rating", "job_id", id, "acceptor", acceptor, "error", err)
	}

	s.logger.Info(ctx, "job rated", "job_id", id, "rating", rating)
	return s.jobs.FindByID(ctx, id)
}

// refreshRating stores the acceptor's average rating on their profile.
func (s *jobService) refreshRating(ctx context.Context, acceptor uuid.UUID) error {
	avg, err := s.jobs.AverageRating(ctx, acceptor)
	if err != nil {
		return err
	}
	if avg != nil {
		rounded := float64(int(*avg*100+0.5)) / 100
		avg = &rounded
	}

	if err := s.profiles.Ensure(ctx, acceptor); err != nil {
		return err
	}
	return s.profiles.UpdateRating(ctx, acceptor, avg)
}
