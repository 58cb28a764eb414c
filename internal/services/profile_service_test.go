package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func TestProfileService(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.profiles, e.store, 1<<20, logging.Discard())
	id := e.user(t)

	name, kind := "Ana", "Localizer"
	p, err := svc.Update(e.ctx, id, models.UpdateProfileRequest{Username: &name, UserType: &kind})
	require.NoError(t, err)
	assert.Equal(t, "Ana", *p.Username)
	assert.Equal(t, models.UserTypeLocalizer, *p.UserType)

	bad := "admin"
	_, err = svc.Update(e.ctx, id, models.UpdateProfileRequest{UserType: &bad})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Update(e.ctx, id, models.UpdateProfileRequest{})
	require.ErrorIs(t, err, ErrValidation)

	p, err = svc.AddLanguage(e.ctx, id, "es")
	require.NoError(t, err)
	p, err = svc.AddLanguage(e.ctx, id, "FR")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"es", "fr"}, p.Languages)

	_, err = svc.AddLanguage(e.ctx, id, "es")
	require.ErrorIs(t, err, ErrDuplicateLanguage)

	p, err = svc.RemoveLanguage(e.ctx, id, "es")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"fr"}, p.Languages)

	_, err = svc.RemoveLanguage(e.ctx, id, "de")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestProfileService_ConcurrentLanguageEditsAreKept(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.profiles, e.store, 1<<20, logging.Discard())
	id := e.user(t)

	languages := []string{"es", "fr", "de", "it"}
	var wg sync.WaitGroup
	errs := make([]error, len(languages))
	for i, lang := range languages {
		wg.Add(1)
		go func(i int, lang string) {
			defer wg.Done()
			_, errs[i] = svc.AddLanguage(e.ctx, id, lang)
		}(i, lang)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	p, err := svc.Get(e.ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, languages, []string(p.Languages))
}

func TestProfileService_UploadAvatar(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.profiles, e.store, 1<<20, logging.Discard())
	id := e.user(t)

	_, err := svc.UploadAvatar(e.ctx, id, textUpload("me.png", "not an image"))
	require.ErrorIs(t, err, ErrValidation)

	p, err := svc.UploadAvatar(e.ctx, id, Upload{Filename: "me.png", Data: pngPixel})
	require.NoError(t, err)
	require.NotNil(t, p.AvatarURL)
	first := *p.AvatarURL

	url, err := svc.AvatarURL(e.ctx, p)
	require.NoError(t, err)
	assert.Contains(t, url, "/profile_pictures/")

	p, err = svc.UploadAvatar(e.ctx, id, Upload{Filename: "me2.png", Data: pngPixel})
	require.NoError(t, err)
	assert.NotEqual(t, first, *p.AvatarURL)

	_, err = e.store.Get(e.ctx, BucketProfilePictures, first)
	require.ErrorIs(t, err, ErrObjectNotFound, "previous avatar is removed")
}

func TestAssistantService(t *testing.T) {
	g := &fakeGemini{reply: "Use 'usted' for formal Spanish."}
	svc := NewAssistantService(g, RetryPolicy{MaxAttempts: 1, InitialDelay: time.Millisecond})
	ctx := context.Background()

	reply, err := svc.Chat(ctx, models.ChatRequest{
		Message: "Formal you in Spanish?",
		History: []models.ChatMessage{{Role: "user", Content: "Hi"}, {Role: "assistant", Content: "Hello!"}},
	})
	require.NoError(t, err)
	assert.Equal(t, g.reply, reply)
	assert.Len(t, g.history, 2)

	_, err = svc.Chat(ctx, models.ChatRequest{Message: "  "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Chat(ctx, models.ChatRequest{Message: "x", History: []models.ChatMessage{{Role: "system", Content: "y"}}})
	require.ErrorIs(t, err, ErrValidation)

	g.err = errors.New("quota")
	_, err = svc.Chat(ctx, models.ChatRequest{Message: "x"})
	require.ErrorIs(t, err, ErrProvider)
}
