package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/repositories"
)

const reconcileBatchSize = 20

type ReconcileReport struct {
	Retried       int
	Completed     int
	Failed        int
	OrphanedFiles []uuid.UUID
}

// Reconciler periodically re-drives pending premium translations and reports
// uploaded files no job references.
type Reconciler interface {
	Start(ctx context.Context)
	Stop()
	RunOnce(ctx context.Context) ReconcileReport
}

type ReconcilerOptions struct {
	Interval    time.Duration
	Grace       time.Duration
	MaxAttempts int
}

type reconciler struct {
	jobs     repositories.JobRepository
	files    repositories.SharedFileRepository
	premium  PremiumService
	opts     ReconcilerOptions
	logger   logging.Logger
	now      func() time.Time
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewReconciler(
	jobs repositories.JobRepository,
	files repositories.SharedFileRepository,
	premium PremiumService,
	opts ReconcilerOptions,
	logger logging.Logger,
) Reconciler {
	return &reconciler{
		jobs:     jobs,
		files:    files,
		premium:  premium,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		stopChan: make(chan struct{}),
	}
}

func (r *reconciler) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
	r.logger.Info(ctx, "reconciler started", "interval", r.opts.Interval.String())
}

func (r *reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

func (r *reconciler) loop(ctx context.Context) {
	defer r.wg.Done()

	interval := r.opts.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			r.logger.Info(ctx, "reconciler stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

func (r *reconciler) RunOnce(ctx context.Context) ReconcileReport {
	var report ReconcileReport
	cutoff := r.now().Add(-r.opts.Grace)

	pending, err := r.jobs.FindPendingTranslations(ctx, cutoff, r.opts.MaxAttempts, reconcileBatchSize)
	if err != nil {
		r.logger.Error(ctx, "failed to fetch pending translations", "error", err)
	}

	for i := range pending {
		if ctx.Err() != nil {
			break
		}

		job := &pending[i]
		report.Retried++

		if _, err := r.premium.RetryTranslation(ctx, job); err != nil {
			report.Failed++
			r.logger.Warn(ctx, "pending translation still failing",
				"job_id", job.ID, "attempts", job.Attempts+1, "error", err)
			continue
		}
		report.Completed++
	}

	orphans, err := r.files.FindOrphans(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		r.logger.Error(ctx, "failed to fetch orphaned files", "error", err)
	}
	for _, f := range orphans {
		report.OrphanedFiles = append(report.OrphanedFiles, f.ID)
	}

	if report.Retried > 0 || len(report.OrphanedFiles) > 0 {
		r.logger.Info(ctx, "reconcile pass finished",
			"retried", report.Retried,
			"completed", report.Completed,
			"failed", report.Failed,
			"orphaned_files", report.OrphanedFiles,
		)
	}

	return report
}
