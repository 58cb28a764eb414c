package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"sirlizard/language-for-you/internal/config"
	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
)

type fakeTranslator struct {
	mu       sync.Mutex
	calls    int
	failures int
	last     TranslationRequest
}

func (f *fakeTranslator) Translate(ctx context.Context, req TranslationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.last = req
	if f.failures > 0 {
		f.failures--
		return "", errors.New("provider unavailable")
	}
	return fmt.Sprintf("[%s] %s", req.TargetLanguage, req.Text), nil
}

type fakeVoice struct {
	err   error
	calls int
}

func (f *fakeVoice) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3 audio for " + language), nil
}

type fakeGemini struct {
	reply   string
	err     error
	history []models.ChatMessage
}

func (f *fakeGemini) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	return f.reply, f.err
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, f.err
}

func (f *fakeGemini) Chat(ctx context.Context, instruction string, history []models.ChatMessage, message string) (string, error) {
	f.history = history
	return f.reply, f.err
}

type recordingMemory struct {
	matches    []MemoryMatch
	lookupErr  error
	remembered []MemoryEntry
}

func (m *recordingMemory) Init(context.Context) error { return nil }

func (m *recordingMemory) Lookup(ctx context.Context, source, target, text string) ([]MemoryMatch, error) {
	return m.matches, m.lookupErr
}

func (m *recordingMemory) Remember(ctx context.Context, entry MemoryEntry) error {
	m.remembered = append(m.remembered, entry)
	return nil
}

type env struct {
	ctx        context.Context
	jobRepo    repositories.JobRepository
	fileRepo   repositories.SharedFileRepository
	profiles   repositories.ProfileRepository
	store      ObjectStore
	files      FileService
	jobs       JobService
	premium    PremiumService
	translator *fakeTranslator
	voice      *fakeVoice
	memory     *recordingMemory
}

var testPricing = config.PricingConfig{Base: 100, PerKB: 0.5, Min: 100, Max: 999}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := config.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)

	store, err := NewDiskObjectStore(t.TempDir(), "http://localhost:3000/uploads")
	require.NoError(t, err)

	logger := logging.Discard()
	e := &env{
		ctx:        context.Background(),
		jobRepo:    repositories.NewJobRepository(db),
		fileRepo:   repositories.NewSharedFileRepository(db),
		profiles:   repositories.NewProfileRepository(db),
		store:      store,
		translator: &fakeTranslator{},
		voice:      &fakeVoice{},
		memory:     &recordingMemory{},
	}

	pricer := NewPricer(testPricing)
	retry := RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond}

	e.files = NewFileService(e.fileRepo, e.jobRepo, store, 1<<20, logger)
	e.jobs = NewJobService(e.jobRepo, e.profiles, e.files, pricer, logger)
	e.premium = NewPremiumService(e.jobRepo, e.files, NewTextExtractor(), e.translator, e.voice, e.memory, pricer, retry, logger)
	return e
}

func (e *env) user(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.profiles.Ensure(e.ctx, id))
	return id
}

func textUpload(name, content string) Upload {
	return Upload{Filename: name, ContentType: "text/plain", Data: []byte(content)}
}
