package services

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirlizard/language-for-you/internal/models"
)

func readReturned(t *testing.T, e *env, job *models.Job) string {
	t.Helper()
	require.NotNil(t, job.ReturnedFileID)

	_, body, err := e.files.Open(e.ctx, *job.ReturnedFileID, job.RequesterID)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	return string(data)
}

func TestPremiumService_Translate(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)
	e.memory.matches = []MemoryMatch{{Text: "Hello", Translation: "Bonjour", Score: 0.9}}

	job, err := e.premium.Translate(e.ctx, client, PremiumTranslateInput{
		SourceLanguage: "en",
		TargetLanguage: "fr",
		File:           textUpload("doc.txt", "Hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, job.Status)
	assert.True(t, job.IsPremium)
	assert.Equal(t, models.PremiumTranslation, *job.PremiumService)
	assert.Equal(t, "fr", job.Language)
	assert.Nil(t, job.AcceptedBy)

	require.NotNil(t, job.ReturnedFile)
	assert.Equal(t, "translated_doc.txt", job.ReturnedFile.Filename)
	assert.Equal(t, "[fr] Hello", readReturned(t, e, job))

	assert.Equal(t, e.memory.matches, e.translator.last.References)
	require.Len(t, e.memory.remembered, 1)
	assert.Equal(t, "[fr] Hello", e.memory.remembered[0].Translation)

	open, err := e.jobs.ListOpen(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, open, "premium jobs never reach the marketplace")

	history, err := e.jobs.ListHistory(e.ctx, client)
	require.NoError(t, err)
	assert.Empty(t, history, "history lists localizer deliveries only")

	submitted, err := e.jobs.ListSubmitted(e.ctx, client)
	require.NoError(t, err)
	assert.Len(t, submitted, 1)
}

func TestPremiumService_Translate_LanguageNames(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)

	job, err := e.premium.Translate(e.ctx, client, PremiumTranslateInput{
		SourceLanguage: "English",
		TargetLanguage: "French",
		File:           textUpload("doc.txt", "Hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, job.Status)
	assert.Equal(t, "en", *job.SourceLanguage)
	assert.Equal(t, "fr", *job.TargetLanguage)
	assert.Equal(t, "fr", job.Language)
	assert.Equal(t, "[fr] Hello", readReturned(t, e, job))
}

func TestPremiumService_Translate_ProviderFailureLeavesPending(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)
	e.translator.failures = 2
	e.memory.lookupErr = errors.New("vector store down")

	_, err := e.premium.Translate(e.ctx, client, PremiumTranslateInput{
		SourceLanguage: "en",
		TargetLanguage: "de",
		File:           textUpload("doc.txt", "Hello"),
	})
	require.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, 2, e.translator.calls)

	submitted, err := e.jobs.ListSubmitted(e.ctx, client)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	pending := submitted[0]
	assert.Equal(t, models.StatusPendingTranslation, pending.Status)
	assert.Equal(t, 1, pending.Attempts)
	assert.Nil(t, pending.ReturnedFileID)

	done, err := e.premium.RetryTranslation(e.ctx, &pending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, "[de] Hello", readReturned(t, e, done))
}

func TestPremiumService_Translate_Validation(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)

	cases := map[string]PremiumTranslateInput{
		"missing source": {TargetLanguage: "fr", File: textUpload("a.txt", "x")},
		"same language":  {SourceLanguage: "en", TargetLanguage: "EN", File: textUpload("a.txt", "x")},
		"binary file":    {SourceLanguage: "en", TargetLanguage: "fr", File: Upload{Filename: "a.bin", Data: []byte{0x00, 0x01, 0xff}}},
		"empty file":     {SourceLanguage: "en", TargetLanguage: "fr", File: Upload{Filename: "a.txt"}},
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.premium.Translate(e.ctx, client, input)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, e.translator.calls)
	submitted, err := e.jobs.ListSubmitted(e.ctx, client)
	require.NoError(t, err)
	assert.Empty(t, submitted)
}

func TestPremiumService_VoiceOver(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)

	job, err := e.premium.VoiceOver(e.ctx, client, VoiceOverInput{
		Language: "es",
		File:     textUpload("script.txt", "Hola a todos"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, job.Status)
	assert.Equal(t, models.PremiumVoiceOver, *job.PremiumService)
	require.NotNil(t, job.File)
	require.NotNil(t, job.ReturnedFile)
	assert.Equal(t, "script.txt", job.File.Filename)
	assert.Equal(t, "voice_over_script.mp3", job.ReturnedFile.Filename)
	assert.Equal(t, "audio/mpeg", *job.ReturnedFile.ContentType)
	assert.NotEqual(t, job.FileID, *job.ReturnedFileID)
	assert.Equal(t, "ID3 audio for es", readReturned(t, e, job))
}

func TestPremiumService_VoiceOver_ProviderFailureStoresNothing(t *testing.T) {
	e := newEnv(t)
	client := e.user(t)
	e.voice.err = Permanent(errors.New("invalid api key"))

	_, err := e.premium.VoiceOver(e.ctx, client, VoiceOverInput{
		Language: "es",
		File:     textUpload("script.txt", "Hola"),
	})
	require.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, 1, e.voice.calls, "permanent errors are not retried")

	orphans, err := e.fileRepo.FindOrphans(e.ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
