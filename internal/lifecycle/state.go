// Package lifecycle is the Job state machine. Every job status is a
// distinct variant carrying exactly the fields that status guarantees, and
// transitions are pure functions from one variant to the next. Persistence
// lives elsewhere: callers load a row with FromJob, transition, and write the
// result back with a conditional update keyed on the previous status.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/models"
)

// AcceptanceWindow is the time a localizer has to return an accepted job.
const AcceptanceWindow = 5 * 24 * time.Hour

const (
	MinRating = 1
	MaxRating = 5
)

// State is one of Open, Accepted, Returned, PendingTranslation, Completed.
type State interface {
	Status() models.JobStatus
	isState()
}

type Open struct{}

type Accepted struct {
	Acceptor   uuid.UUID
	AcceptedAt time.Time
	DueAt      time.Time
}

type Returned struct {
	Acceptor       uuid.UUID
	AcceptedAt     time.Time
	DueAt          time.Time
	ReturnedFileID uuid.UUID
	ReturnedAt     time.Time
	Rating         *int
}

type PendingTranslation struct {
	Attempts int
}

type Completed struct {
	ReturnedFileID uuid.UUID
	ReturnedAt     time.Time
	Attempts       int
}

func (Open) Status() models.JobStatus               { return models.StatusOpen }
func (Accepted) Status() models.JobStatus           { return models.StatusAccepted }
func (Returned) Status() models.JobStatus           { return models.StatusReturned }
func (PendingTranslation) Status() models.JobStatus { return models.StatusPendingTranslation }
func (Completed) Status() models.JobStatus          { return models.StatusCompleted }

func (Open) isState()               {}
func (Accepted) isState()           {}
func (Returned) isState()           {}
func (PendingTranslation) isState() {}
func (Completed) isState()          {}

// Statuses lists every status a persisted job may carry.
func Statuses() []models.JobStatus {
	return []models.JobStatus{
		models.StatusOpen,
		models.StatusAccepted,
		models.StatusReturned,
		models.StatusCompleted,
		models.StatusPendingTranslation,
	}
}

// IsFulfilled reports whether status is terminal: a human return or a
// premium auto-fulfillment. Both carry a returned file.
func IsFulfilled(status models.JobStatus) bool {
	return status == models.StatusReturned || status == models.StatusCompleted
}

// FromJob rebuilds the state variant from a persisted row. Rows whose
// columns contradict their status are rejected with ErrCorruptState.
func FromJob(j *models.Job) (State, error) {
	corrupt := func(reason string) error {
		return fmt.Errorf("%w: job %s (%s): %s", ErrCorruptState, j.ID, j.Status, reason)
	}

	switch j.Status {
	case models.StatusOpen:
		if j.AcceptedBy != nil || j.ReturnedFileID != nil || j.Rating != nil {
			return nil, corrupt("open job has acceptance or return data")
		}
		return Open{}, nil

	case models.StatusAccepted:
		if j.AcceptedBy == nil || j.AcceptedAt == nil || j.DueDate == nil {
			return nil, corrupt("missing acceptance data")
		}
		if j.ReturnedFileID != nil || j.Rating != nil {
			return nil, corrupt("accepted job has return data")
		}
		return Accepted{
			Acceptor:   *j.AcceptedBy,
			AcceptedAt: *j.AcceptedAt,
			DueAt:      *j.DueDate,
		}, nil

	case models.StatusReturned:
		if j.AcceptedBy == nil || j.AcceptedAt == nil || j.DueDate == nil {
			return nil, corrupt("missing acceptance data")
		}
		if j.ReturnedFileID == nil || j.ReturnedAt == nil {
			return nil, corrupt("missing return data")
		}
		if j.Rating != nil && !validRating(*j.Rating) {
			return nil, corrupt("rating out of range")
		}
		return Returned{
			Acceptor:       *j.AcceptedBy,
			AcceptedAt:     *j.AcceptedAt,
			DueAt:          *j.DueDate,
			ReturnedFileID: *j.ReturnedFileID,
			ReturnedAt:     *j.ReturnedAt,
			Rating:         copyInt(j.Rating),
		}, nil

	case models.StatusPendingTranslation:
		if j.ReturnedFileID != nil {
			return nil, corrupt("pending translation already has a returned file")
		}
		return PendingTranslation{Attempts: j.Attempts}, nil

	case models.StatusCompleted:
		if j.ReturnedFileID == nil || j.ReturnedAt == nil {
			return nil, corrupt("missing return data")
		}
		return Completed{
			ReturnedFileID: *j.ReturnedFileID,
			ReturnedAt:     *j.ReturnedAt,
			Attempts:       j.Attempts,
		}, nil
	}

	return nil, corrupt("unknown status")
}

// Columns renders the lifecycle columns of s, keyed by column name. Every
// lifecycle column is present so a write fully replaces the previous state.
func Columns(s State) map[string]any {
	cols := map[string]any{
		"status":           s.Status(),
		"accepted_by":      nil,
		"accepted_at":      nil,
		"due_date":         nil,
		"returned_file_id": nil,
		"returned_at":      nil,
		"rating":           nil,
	}

	switch v := s.(type) {
	case Accepted:
		cols["accepted_by"] = v.Acceptor
		cols["accepted_at"] = v.AcceptedAt
		cols["due_date"] = v.DueAt
	case Returned:
		cols["accepted_by"] = v.Acceptor
		cols["accepted_at"] = v.AcceptedAt
		cols["due_date"] = v.DueAt
		cols["returned_file_id"] = v.ReturnedFileID
		cols["returned_at"] = v.ReturnedAt
		if v.Rating != nil {
			cols["rating"] = *v.Rating
		}
	case PendingTranslation:
		cols["attempts"] = v.Attempts
	case Completed:
		cols["returned_file_id"] = v.ReturnedFileID
		cols["returned_at"] = v.ReturnedAt
		cols["attempts"] = v.Attempts
	}

	return cols
}

// ApplyTo copies s into the lifecycle fields of j.
func ApplyTo(j *models.Job, s State) {
	j.Status = s.Status()
	j.AcceptedBy, j.AcceptedAt, j.DueDate = nil, nil, nil
	j.ReturnedFileID, j.ReturnedAt, j.Rating = nil, nil, nil

	switch v := s.(type) {
	case Accepted:
		j.AcceptedBy, j.AcceptedAt, j.DueDate = &v.Acceptor, &v.AcceptedAt, &v.DueAt
	case Returned:
		j.AcceptedBy, j.AcceptedAt, j.DueDate = &v.Acceptor, &v.AcceptedAt, &v.DueAt
		j.ReturnedFileID, j.ReturnedAt = &v.ReturnedFileID, &v.ReturnedAt
		j.Rating = copyInt(v.Rating)
	case PendingTranslation:
		j.Attempts = v.Attempts
	case Completed:
		j.ReturnedFileID, j.ReturnedAt = &v.ReturnedFileID, &v.ReturnedAt
		j.Attempts = v.Attempts
	}
}

func validRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
