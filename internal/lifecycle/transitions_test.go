package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirlizard/language-for-you/internal/models"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAccept_FromOpen(t *testing.T) {
	caller := uuid.New()

	s, err := Accept(Open{}, caller, now)
	require.NoError(t, err)

	acc, ok := s.(Accepted)
	require.True(t, ok, "expected Accepted, got %T", s)
	assert.Equal(t, caller, acc.Acceptor)
	assert.Equal(t, now, acc.AcceptedAt)
	assert.Equal(t, 5*24*time.Hour, acc.DueAt.Sub(acc.AcceptedAt))
	assert.Equal(t, models.StatusAccepted, s.Status())
}

func TestAccept_RejectsEveryOtherState(t *testing.T) {
	states := []State{
		Accepted{Acceptor: uuid.New(), AcceptedAt: now, DueAt: now.Add(AcceptanceWindow)},
		Returned{Acceptor: uuid.New(), ReturnedFileID: uuid.New(), ReturnedAt: now},
		PendingTranslation{},
		Completed{ReturnedFileID: uuid.New(), ReturnedAt: now},
	}

	for _, s := range states {
		t.Run(string(s.Status()), func(t *testing.T) {
			_, err := Accept(s, uuid.New(), now)
			require.ErrorIs(t, err, ErrInvalidTransition)

			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, EventAccept, te.Event)
			assert.Equal(t, s.Status(), te.From)
		})
	}
}

func TestAccept_RequiresCaller(t *testing.T) {
	_, err := Accept(Open{}, uuid.Nil, now)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

// Two callers that both read the job while it is open both pass the guard.
// Only the storage-level conditional update decides the winner.
func TestAccept_ConcurrentReadersBothPassGuard(t *testing.T) {
	read := Open{}

	a, errA := Accept(read, uuid.New(), now)
	b, errB := Accept(read, uuid.New(), now.Add(time.Millisecond))

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.NotEqual(t, a.(Accepted).Acceptor, b.(Accepted).Acceptor)
}

func TestReturn(t *testing.T) {
	acceptor := uuid.New()
	acc := Accepted{Acceptor: acceptor, AcceptedAt: now, DueAt: now.Add(AcceptanceWindow)}
	fileID := uuid.New()
	later := now.Add(48 * time.Hour)

	t.Run("acceptor returns", func(t *testing.T) {
		s, err := Return(acc, acceptor, fileID, later)
		require.NoError(t, err)

		ret := s.(Returned)
		assert.Equal(t, fileID, ret.ReturnedFileID)
		assert.Equal(t, later, ret.ReturnedAt)
		assert.Equal(t, acc.DueAt, ret.DueAt)
		assert.Nil(t, ret.Rating)
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := Return(acc, uuid.New(), fileID, later)
		require.ErrorIs(t, err, ErrNotAcceptor)
		require.ErrorIs(t, CanReturn(acc, uuid.New()), ErrNotAcceptor)
	})

	t.Run("twice", func(t *testing.T) {
		s, err := Return(acc, acceptor, fileID, later)
		require.NoError(t, err)

		_, err = Return(s, acceptor, uuid.New(), later)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("open job", func(t *testing.T) {
		require.ErrorIs(t, CanReturn(Open{}, acceptor), ErrInvalidTransition)
	})
}

func TestRate(t *testing.T) {
	ret := Returned{Acceptor: uuid.New(), ReturnedFileID: uuid.New(), ReturnedAt: now}

	s, err := Rate(ret, 5)
	require.NoError(t, err)
	require.NotNil(t, s.(Returned).Rating)
	assert.Equal(t, 5, *s.(Returned).Rating)

	_, err = Rate(s, 3)
	require.ErrorIs(t, err, ErrAlreadyRated)
	assert.Equal(t, 5, *s.(Returned).Rating, "rejected rate must not change the state")

	for _, bad := range []int{0, 6, -1} {
		_, err := Rate(ret, bad)
		require.ErrorIs(t, err, ErrInvalidRating)
	}

	_, err = Rate(Completed{ReturnedFileID: uuid.New(), ReturnedAt: now}, 4)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPremiumTranslation(t *testing.T) {
	s, err := RecordAttempt(PendingTranslation{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.(PendingTranslation).Attempts)

	fileID := uuid.New()
	done, err := CompleteTranslation(s, fileID, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status())
	assert.Equal(t, fileID, done.(Completed).ReturnedFileID)
	assert.Equal(t, 1, done.(Completed).Attempts)

	_, err = CompleteTranslation(done, uuid.New(), now)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = RecordAttempt(Open{})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFromJob_RoundTrip(t *testing.T) {
	rating := 4
	states := []State{
		Open{},
		Accepted{Acceptor: uuid.New(), AcceptedAt: now, DueAt: now.Add(AcceptanceWindow)},
		Returned{Acceptor: uuid.New(), AcceptedAt: now, DueAt: now.Add(AcceptanceWindow), ReturnedFileID: uuid.New(), ReturnedAt: now, Rating: &rating},
		PendingTranslation{Attempts: 2},
		Completed{ReturnedFileID: uuid.New(), ReturnedAt: now, Attempts: 1},
	}

	for _, s := range states {
		t.Run(string(s.Status()), func(t *testing.T) {
			job := &models.Job{ID: uuid.New()}
			ApplyTo(job, s)

			got, err := FromJob(job)
			require.NoError(t, err)
			assert.Equal(t, s, got)
			assert.Equal(t, job.ReturnedFileID != nil, IsFulfilled(job.Status))
		})
	}
}

func TestFromJob_RejectsCorruptRows(t *testing.T) {
	fileID := uuid.New()
	acceptor := uuid.New()

	rows := map[string]*models.Job{
		"returned without file": {Status: models.StatusReturned, AcceptedBy: &acceptor, AcceptedAt: &now, DueDate: &now, ReturnedAt: &now},
		"open with file":        {Status: models.StatusOpen, ReturnedFileID: &fileID},
		"accepted without user": {Status: models.StatusAccepted, AcceptedAt: &now, DueDate: &now},
		"completed without at":  {Status: models.StatusCompleted, ReturnedFileID: &fileID},
		"unknown status":        {Status: "archived"},
	}

	for name, job := range rows {
		t.Run(name, func(t *testing.T) {
			_, err := FromJob(job)
			require.ErrorIs(t, err, ErrCorruptState)
		})
	}
}

func TestColumns(t *testing.T) {
	acc := Accepted{Acceptor: uuid.New(), AcceptedAt: now, DueAt: now.Add(AcceptanceWindow)}

	cols := Columns(acc)
	assert.Equal(t, models.StatusAccepted, cols["status"])
	assert.Equal(t, acc.Acceptor, cols["accepted_by"])
	assert.Nil(t, cols["returned_file_id"])
	assert.NotContains(t, cols, "attempts")

	cols = Columns(PendingTranslation{Attempts: 3})
	assert.Equal(t, 3, cols["attempts"])
}
