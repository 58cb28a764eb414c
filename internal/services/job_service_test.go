package services

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirlizard/language-for-you/internal/lifecycle"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

func TestJobService_EndToEnd(t *testing.T) {
	e := newEnv(t)
	client, localizer := e.user(t), e.user(t)

	job, err := e.jobs.Submit(e.ctx, client, SubmitJobInput{
		Language: "es",
		File:     textUpload("doc.txt", "Hello, world."),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, job.Status)

	open, err := e.jobs.ListOpen(e.ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, job.ID, open[0].ID)
	assert.Greater(t, open[0].PaymentAmount, 0.0)

	accepted, err := e.jobs.Accept(e.ctx, job.ID, localizer)
	require.NoError(t, err)

	working, err := e.jobs.ListWorking(e.ctx, localizer)
	require.NoError(t, err)
	require.Len(t, working, 1)
	require.NotNil(t, working[0].AcceptedAt)
	assert.WithinDuration(t, accepted.AcceptedAt.Add(5*24*time.Hour), *working[0].DueDate, time.Millisecond)

	returned, err := e.jobs.Return(e.ctx, job.ID, localizer, textUpload("doc_es.txt", "Hola, mundo."))
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, returned.Status)

	history, err := e.jobs.ListHistory(e.ctx, client)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusReturned, history[0].Status)
	require.NotNil(t, history[0].ReturnedFile)
	assert.Equal(t, "doc_es.txt", history[0].ReturnedFile.Filename)

	rated, err := e.jobs.Rate(e.ctx, job.ID, client, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, *rated.Rating)

	_, err = e.jobs.Rate(e.ctx, job.ID, client, 1)
	require.ErrorIs(t, err, lifecycle.ErrAlreadyRated)

	stored, err := e.jobs.Get(e.ctx, job.ID, client)
	require.NoError(t, err)
	assert.Equal(t, 5, *stored.Rating)

	profile, err := e.profiles.FindByID(e.ctx, localizer)
	require.NoError(t, err)
	require.NotNil(t, profile.Rating)
	assert.InDelta(t, 5.0, *profile.Rating, 0.001)
}

func TestJobService_Submit_Validation(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)

	_, err := e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "", File: textUpload("doc.txt", "x")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "es", File: Upload{Filename: "doc.txt"}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "es", File: Upload{Filename: "big.txt", Data: make([]byte, 2<<20)}})
	require.ErrorIs(t, err, ErrValidation)

	submitted, err := e.jobs.ListSubmitted(e.ctx, client)
	require.NoError(t, err)
	assert.Empty(t, submitted, "rejected submissions create nothing")
}

func TestJobService_Accept_TwiceConflicts(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)

	job, err := e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "fr", File: textUpload("a.txt", "abc")})
	require.NoError(t, err)

	_, err = e.jobs.Accept(e.ctx, job.ID, e.user(t))
	require.NoError(t, err)

	_, err = e.jobs.Accept(e.ctx, job.ID, e.user(t))
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = e.jobs.Accept(e.ctx, uuid.New(), e.user(t))
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestJobService_Return_Guards(t *testing.T) {
	e := newEnv(t)
	client, localizer, other := e.user(t), e.user(t), e.user(t)

	job, err := e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "de", File: textUpload("a.txt", "abc")})
	require.NoError(t, err)

	_, err = e.jobs.Return(e.ctx, job.ID, localizer, textUpload("a_de.txt", "abc"))
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition, "open jobs cannot be returned")

	_, err = e.jobs.Accept(e.ctx, job.ID, localizer)
	require.NoError(t, err)

	_, err = e.jobs.Return(e.ctx, job.ID, other, textUpload("a_de.txt", "abc"))
	require.ErrorIs(t, err, lifecycle.ErrNotAcceptor)

	orphans, err := e.fileRepo.FindOrphans(e.ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, orphans, "rejected returns upload nothing")
}

func TestJobService_Rate_OnlyRequester(t *testing.T) {
	e := newEnv(t)
	client, localizer := e.user(t), e.user(t)

	job, err := e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "it", File: textUpload("a.txt", "abc")})
	require.NoError(t, err)

	_, err = e.jobs.Rate(e.ctx, job.ID, client, 4)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = e.jobs.Accept(e.ctx, job.ID, localizer)
	require.NoError(t, err)
	_, err = e.jobs.Return(e.ctx, job.ID, localizer, textUpload("a_it.txt", "abc"))
	require.NoError(t, err)

	_, err = e.jobs.Rate(e.ctx, job.ID, localizer, 5)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = e.jobs.Rate(e.ctx, job.ID, client, 9)
	require.ErrorIs(t, err, lifecycle.ErrInvalidRating)
}

func TestJobService_Get_Visibility(t *testing.T) {
	e := newEnv(t)
	client, localizer, stranger := e.user(t), e.user(t), e.user(t)

	job, err := e.jobs.Submit(e.ctx, client, SubmitJobInput{Language: "pt-br", File: textUpload("a.txt", "abc")})
	require.NoError(t, err)
	assert.Equal(t, "pt-br", job.Language)

	_, err = e.jobs.Get(e.ctx, job.ID, stranger)
	require.NoError(t, err, "open jobs are public")

	_, err = e.jobs.Accept(e.ctx, job.ID, localizer)
	require.NoError(t, err)

	_, err = e.jobs.Get(e.ctx, job.ID, stranger)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = e.jobs.Get(e.ctx, job.ID, localizer)
	require.NoError(t, err)

	_, body, err := e.files.Open(e.ctx, job.FileID, localizer)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	_, _, err = e.files.Open(e.ctx, job.FileID, stranger)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestJobService_Quote(t *testing.T) {
	e := newEnv(t)

	q, err := e.jobs.Quote("ES", 10*1024)
	require.NoError(t, err)
	assert.Equal(t, "es", q.Language)
	assert.Equal(t, 105.0, q.PaymentAmount)

	_, err = e.jobs.Quote("not a language", 1)
	require.ErrorIs(t, err, ErrValidation)
}
