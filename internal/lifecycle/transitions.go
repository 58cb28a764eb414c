package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/models"
)

type Event string

const (
	EventAccept              Event = "accept"
	EventReturn              Event = "return"
	EventRate                Event = "rate"
	EventCompleteTranslation Event = "complete_translation"
	EventRecordAttempt       Event = "record_attempt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotAcceptor       = errors.New("caller is not the acceptor")
	ErrAlreadyRated      = errors.New("job already rated")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrUnauthenticated   = errors.New("caller is not authenticated")
	ErrCorruptState      = errors.New("job row violates lifecycle invariants")
)

// TransitionError is the typed rejection returned by every transition.
type TransitionError struct {
	Event Event
	From  models.JobStatus
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s job in status %s: %v", e.Event, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func reject(ev Event, s State, err error) error {
	return &TransitionError{Event: ev, From: s.Status(), Err: err}
}

// Accept hands an open job to caller, due AcceptanceWindow after now.
func Accept(s State, caller uuid.UUID, now time.Time) (State, error) {
	if _, ok := s.(Open); !ok {
		return nil, reject(EventAccept, s, ErrInvalidTransition)
	}
	if caller == uuid.Nil {
		return nil, reject(EventAccept, s, ErrUnauthenticated)
	}

	return Accepted{
		Acceptor:   caller,
		AcceptedAt: now,
		DueAt:      now.Add(AcceptanceWindow),
	}, nil
}

// Return records the localizer's delivered file. Only the acceptor may
// return, and only once.
func Return(s State, caller uuid.UUID, fileID uuid.UUID, now time.Time) (State, error) {
	acc, ok := s.(Accepted)
	if !ok {
		return nil, reject(EventReturn, s, ErrInvalidTransition)
	}
	if caller != acc.Acceptor {
		return nil, reject(EventReturn, s, ErrNotAcceptor)
	}
	if fileID == uuid.Nil {
		return nil, reject(EventReturn, s, fmt.Errorf("%w: missing returned file", ErrInvalidTransition))
	}

	return Returned{
		Acceptor:       acc.Acceptor,
		AcceptedAt:     acc.AcceptedAt,
		DueAt:          acc.DueAt,
		ReturnedFileID: fileID,
		ReturnedAt:     now,
	}, nil
}

// CanReturn checks the Return guard without producing a state, so the
// returned file is only uploaded when the transition can succeed.
func CanReturn(s State, caller uuid.UUID) error {
	_, err := Return(s, caller, uuid.New(), time.Time{})
	return err
}

// Rate sets the one rating a returned job can carry.
func Rate(s State, rating int) (State, error) {
	ret, ok := s.(Returned)
	if !ok {
		return nil, reject(EventRate, s, ErrInvalidTransition)
	}
	if ret.Rating != nil {
		return nil, reject(EventRate, s, ErrAlreadyRated)
	}
	if !validRating(rating) {
		return nil, reject(EventRate, s, ErrInvalidRating)
	}

	ret.Rating = &rating
	return ret, nil
}

// RecordAttempt counts one failed provider call on a pending translation.
func RecordAttempt(s State) (State, error) {
	p, ok := s.(PendingTranslation)
	if !ok {
		return nil, reject(EventRecordAttempt, s, ErrInvalidTransition)
	}
	return PendingTranslation{Attempts: p.Attempts + 1}, nil
}

// CompleteTranslation attaches the machine translation to a pending job.
func CompleteTranslation(s State, fileID uuid.UUID, now time.Time) (State, error) {
	p, ok := s.(PendingTranslation)
	if !ok {
		return nil, reject(EventCompleteTranslation, s, ErrInvalidTransition)
	}
	if fileID == uuid.Nil {
		return nil, reject(EventCompleteTranslation, s, fmt.Errorf("%w: missing translated file", ErrInvalidTransition))
	}

	return Completed{
		ReturnedFileID: fileID,
		ReturnedAt:     now,
		Attempts:       p.Attempts,
	}, nil
}

// NewCompleted is the initial state of a job fulfilled before it is
// recorded, as with voice-overs.
func NewCompleted(returnedFileID uuid.UUID, now time.Time) Completed {
	return Completed{ReturnedFileID: returnedFileID, ReturnedAt: now}
}
