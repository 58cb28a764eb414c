package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/lifecycle"
	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

type PremiumTranslateInput struct {
	SourceLanguage string
	TargetLanguage string
	File           Upload
}

type VoiceOverInput struct {
	Language string
	File     Upload
}

type PremiumService interface {
	// Translate records a pending premium job and runs the machine
	// translation. A provider failure leaves the job pending for the
	// reconciler and is returned wrapped in ErrProvider.
	Translate(ctx context.Context, caller uuid.UUID, input PremiumTranslateInput) (*models.Job, error)
	VoiceOver(ctx context.Context, caller uuid.UUID, input VoiceOverInput) (*models.Job, error)
	// RetryTranslation re-runs the pipeline of a pending translation job.
	RetryTranslation(ctx context.Context, job *models.Job) (*models.Job, error)
}

type premiumService struct {
	jobs       repositories.JobRepository
	files      FileService
	extractor  TextExtractor
	translator Translator
	voice      VoiceSynthesizer
	memory     TranslationMemory
	pricer     *Pricer
	retry      RetryPolicy
	logger     logging.Logger
	now        func() time.Time
}

func NewPremiumService(
	jobs repositories.JobRepository,
	files FileService,
	extractor TextExtractor,
	translator Translator,
	voice VoiceSynthesizer,
	memory TranslationMemory,
	pricer *Pricer,
	retry RetryPolicy,
	logger logging.Logger,
) PremiumService {
	if memory == nil {
		memory = NewNoopMemory()
	}
	return &premiumService{
		jobs:       jobs,
		files:      files,
		extractor:  extractor,
		translator: translator,
		voice:      voice,
		memory:     memory,
		pricer:     pricer,
		retry:      retry,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *premiumService) Translate(ctx context.Context, caller uuid.UUID, input PremiumTranslateInput) (*models.Job, error) {
	source, err := NormalizeLanguage("source_language", input.SourceLanguage)
	if err != nil {
		return nil, err
	}
	target, err := NormalizeLanguage("target_language", input.TargetLanguage)
	if err != nil {
		return nil, err
	}
	if source == target {
		return nil, fmt.Errorf("%w: source and target language are the same", ErrValidation)
	}

	text, err := s.extractor.ExtractText(input.File.Filename, input.File.Data)
	if err != nil {
		return nil, err
	}

	amount, err := s.pricer.Quote(input.File.Size())
	if err != nil {
		return nil, err
	}

	file, err := s.files.Store(ctx, caller, input.File, nil)
	if err != nil {
		return nil, err
	}

	service := models.PremiumTranslation
	job := &models.Job{
		RequesterID:    caller,
		Language:       target,
		SourceLanguage: &source,
		TargetLanguage: &target,
		IsPremium:      true,
		PremiumService: &service,
		PaymentAmount:  amount,
		FileID:         file.ID,
	}
	lifecycle.ApplyTo(job, lifecycle.PendingTranslation{})

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	job.File = file

	s.logger.Info(ctx, "premium translation started", "job_id", job.ID, "source", source, "target", target)
	return s.runTranslation(ctx, job, text)
}

func (s *premiumService) RetryTranslation(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.File == nil {
		return nil, fmt.Errorf("job %s has no source file loaded", job.ID)
	}

	from, err := lifecycle.FromJob(job)
	if err != nil {
		return nil, err
	}
	if _, ok := from.(lifecycle.PendingTranslation); !ok {
		return nil, &lifecycle.TransitionError{Event: lifecycle.EventCompleteTranslation, From: from.Status(), Err: lifecycle.ErrInvalidTransition}
	}

	// An unreadable source counts against the attempt budget like a provider failure.
	data, err := s.files.Read(ctx, job.File)
	if err != nil {
		s.recordAttempt(ctx, job.ID, from)
		return nil, err
	}

	text, err := s.extractor.ExtractText(job.File.Filename, data)
	if err != nil {
		s.recordAttempt(ctx, job.ID, from)
		return nil, err
	}

	return s.runTranslation(ctx, job, text)
}

func (s *premiumService) runTranslation(ctx context.Context, job *models.Job, text string) (*models.Job, error) {
	from, err := lifecycle.FromJob(job)
	if err != nil {
		return nil, err
	}
	if _, ok := from.(lifecycle.PendingTranslation); !ok {
		return nil, &lifecycle.TransitionError{Event: lifecycle.EventCompleteTranslation, From: from.Status(), Err: lifecycle.ErrInvalidTransition}
	}

	source, target := deref(job.SourceLanguage), deref(job.TargetLanguage)

	references, err := s.memory.Lookup(ctx, source, target, text)
	if err != nil {
		s.logger.Warn(ctx, "translation memory lookup failed", "job_id", job.ID, "error", err)
		references = nil
	}

	var translated string
	err = s.retry.Do(ctx, "translate", func(ctx context.Context) error {
		out, err := s.translator.Translate(ctx, TranslationRequest{
			SourceLanguage: source,
			TargetLanguage: target,
			Text:           text,
			References:     references,
		})
		if err != nil {
			return err
		}
		translated = out
		return nil
	})
	if err != nil {
		s.recordAttempt(ctx, job.ID, from)
		return nil, err
	}

	outFile, err := s.files.Store(ctx, job.RequesterID, Upload{
		Filename:    translatedFilename(job),
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(translated),
	}, nil)
	if err != nil {
		s.recordAttempt(ctx, job.ID, from)
		return nil, err
	}

	to, err := lifecycle.CompleteTranslation(from, outFile.ID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Transition(ctx, job.ID, from, to); err != nil {
		s.logger.Warn(ctx, "translated file left unreferenced", "job_id", job.ID, "file_id", outFile.ID, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "premium translation completed", "job_id", job.ID, "returned_file_id", outFile.ID)

	if err := s.memory.Remember(ctx, MemoryEntry{
		DocID:          job.ID.String(),
		SourceLanguage: source,
		TargetLanguage: target,
		Text:           text,
		Translation:    translated,
	}); err != nil {
		s.logger.Warn(ctx, "failed to store translation memory", "job_id", job.ID, "error", err)
	}

	return s.jobs.FindByID(ctx, job.ID)
}

// recordAttempt counts a failed run. A lost race only means another run got
// there first.
func (s *premiumService) recordAttempt(ctx context.Context, id uuid.UUID, from lifecycle.State) {
	to, err := lifecycle.RecordAttempt(from)
	if err == nil {
		err = s.jobs.Transition(ctx, id, from, to)
	}
	if err != nil && !errors.Is(err, repositories.ErrConflict) {
		s.logger.Error(ctx, "failed to record translation attempt", "job_id", id, "error", err)
	}
}

func (s *premiumService) VoiceOver(ctx context.Context, caller uuid.UUID, input VoiceOverInput) (*models.Job, error) {
	lang, err := NormalizeLanguage("language", input.Language)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.ExtractText(input.File.Filename, input.File.Data)
	if err != nil {
		return nil, err
	}

	amount, err := s.pricer.Quote(input.File.Size())
	if err != nil {
		return nil, err
	}

	var audio []byte
	err = s.retry.Do(ctx, "voice_over", func(ctx context.Context) error {
		out, err := s.voice.Synthesize(ctx, text, lang)
		if err != nil {
			return err
		}
		audio = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	sourceFile, err := s.files.Store(ctx, caller, input.File, nil)
	if err != nil {
		return nil, err
	}

	audioFile, err := s.files.Store(ctx, caller, Upload{
		Filename:    "voice_over_" + stem(input.File.Filename) + ".mp3",
		ContentType: "audio/mpeg",
		Data:        audio,
	}, nil)
	if err != nil {
		return nil, err
	}

	service := models.PremiumVoiceOver
	job := &models.Job{
		RequesterID:    caller,
		Language:       lang,
		TargetLanguage: &lang,
		IsPremium:      true,
		PremiumService: &service,
		PaymentAmount:  amount,
		FileID:         sourceFile.ID,
	}
	lifecycle.ApplyTo(job, lifecycle.NewCompleted(audioFile.ID, s.now()))

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "voice-over completed", "job_id", job.ID, "returned_file_id", audioFile.ID)
	return s.jobs.FindByID(ctx, job.ID)
}

func translatedFilename(job *models.Job) string {
	name := "document"
	if job.File != nil {
		name = job.File.Filename
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext == ".pdf" || ext == "" {
		return "translated_" + stem(name) + ".txt"
	}
	return "translated_" + name
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
