package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"sirlizard/language-for-you/internal/logging"
)

const (
	memoryChunkSize    = 1200
	memoryChunkOverlap = 100
	memoryLookupLimit  = 3
	// text-embedding-004
	memoryVectorSize = 768
)

// MemoryEntry is a source text and, when known, its translation.
type MemoryEntry struct {
	DocID          string
	SourceLanguage string
	TargetLanguage string
	Text           string
	Translation    string
}

type MemoryMatch struct {
	DocID       string
	Score       float32
	Text        string
	Translation string
}

// TranslationMemory stores past translations for reuse as prompt context.
type TranslationMemory interface {
	Init(ctx context.Context) error
	Lookup(ctx context.Context, sourceLanguage, targetLanguage, text string) ([]MemoryMatch, error)
	Remember(ctx context.Context, entry MemoryEntry) error
}

type noopMemory struct{}

// NewNoopMemory is the memory used when the vector store is disabled.
func NewNoopMemory() TranslationMemory { return noopMemory{} }

func (noopMemory) Init(context.Context) error { return nil }
func (noopMemory) Lookup(context.Context, string, string, string) ([]MemoryMatch, error) {
	return nil, nil
}
func (noopMemory) Remember(context.Context, MemoryEntry) error { return nil }

type qdrantMemory struct {
	client         *qdrant.Client
	collectionName string
	gemini         GeminiService
	chunker        TextChunker
	logger         logging.Logger
}

func NewQdrantMemory(urlStr, apiKey, collectionName string, gemini GeminiService, chunker TextChunker, logger logging.Logger) (TranslationMemory, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantMemory{
		client:         client,
		collectionName: collectionName,
		gemini:         gemini,
		chunker:        chunker,
		logger:         logger,
	}, nil
}

func (m *qdrantMemory) Init(ctx context.Context) error {
	exists, err := m.client.CollectionExists(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = m.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: m.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     memoryVectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	m.logger.Info(ctx, "translation memory collection created", "collection", m.collectionName)
	return nil
}

func (m *qdrantMemory) Lookup(ctx context.Context, sourceLanguage, targetLanguage, text string) ([]MemoryMatch, error) {
	chunks := m.chunker.ChunkText(text, memoryChunkSize, 0)
	if len(chunks) == 0 {
		return nil, nil
	}

	// The opening of a document is representative enough for terminology.
	embedding, err := m.gemini.GenerateEmbedding(ctx, chunks[0])
	if err != nil {
		return nil, err
	}

	points, err := m.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: m.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source_language", sourceLanguage),
				qdrant.NewMatch("target_language", targetLanguage),
			},
		},
		Limit:       qdrant.PtrOf(uint64(memoryLookupLimit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search translation memory: %w", err)
	}

	matches := make([]MemoryMatch, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		matches = append(matches, MemoryMatch{
			DocID:       payloadString(payload, "doc_id"),
			Score:       point.Score,
			Text:        payloadString(payload, "text"),
			Translation: payloadString(payload, "translation"),
		})
	}
	return matches, nil
}

type memoryPair struct {
	text        string
	translation string
}

// memoryPairs splits an entry into source chunks with their translations.
// Chunks only pair up when both sides split the same way; otherwise the whole
// document is kept as a single pair. Reference text without a translation is
// chunked on its own.
func memoryPairs(chunker TextChunker, entry MemoryEntry) []memoryPair {
	sources := chunker.ChunkText(entry.Text, memoryChunkSize, memoryChunkOverlap)
	translations := chunker.ChunkText(entry.Translation, memoryChunkSize, memoryChunkOverlap)

	if len(translations) > 0 && len(sources) != len(translations) {
		text, translation := strings.TrimSpace(entry.Text), strings.TrimSpace(entry.Translation)
		if text == "" {
			return nil
		}
		return []memoryPair{{text: text, translation: translation}}
	}

	pairs := make([]memoryPair, 0, len(sources))
	for i, chunk := range sources {
		pair := memoryPair{text: chunk}
		if len(translations) > 0 {
			pair.translation = translations[i]
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

func (m *qdrantMemory) Remember(ctx context.Context, entry MemoryEntry) error {
	pairs := memoryPairs(m.chunker, entry)

	points := make([]*qdrant.PointStruct, 0, len(pairs))
	for i, pair := range pairs {
		embedding, err := m.gemini.GenerateEmbedding(ctx, pair.text)
		if err != nil {
			return err
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"doc_id":          entry.DocID,
				"chunk":           i,
				"source_language": entry.SourceLanguage,
				"target_language": entry.TargetLanguage,
				"text":            pair.text,
				"translation":     pair.translation,
			}),
		})
	}
	if len(points) == 0 {
		return nil
	}

	_, err := m.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: m.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert translation memory: %w", err)
	}
	return nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
