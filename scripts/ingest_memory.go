// Command ingest_memory seeds the translation memory with reference material:
// style guides, glossaries and previously translated documents.
//
//	go run scripts/ingest_memory.go -source en -target fr guide.pdf old.txt=old_fr.txt
//
// A "source=translation" argument stores a translated pair; a single path
// stores reference text without a translation.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"sirlizard/language-for-you/internal/config"
	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/services"
)

func main() {
	source := flag.String("source", "", "source language code")
	target := flag.String("target", "", "target language code")
	flag.Parse()

	log.Println("🚀 Starting translation memory ingestion...")

	cfg := config.Load()
	if cfg.Qdrant.URL == "" {
		log.Fatal("❌ QDRANT_URL is required")
	}

	src, err := services.NormalizeLanguage("source", *source)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	dst, err := services.NormalizeLanguage("target", *target)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if flag.NArg() == 0 {
		log.Fatal("❌ No documents given")
	}

	ctx := context.Background()
	logger := logging.New(os.Stderr, cfg.Server.Env)

	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	memory, err := services.NewQdrantMemory(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		geminiService,
		services.NewTextChunker(),
		logger,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	if err := memory.Init(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	extractor := services.NewTextExtractor()
	successCount, failCount := 0, 0

	for _, arg := range flag.Args() {
		sourcePath, translationPath, paired := strings.Cut(arg, "=")
		log.Printf("📄 Processing: %s", arg)

		text, err := readText(extractor, sourcePath)
		if err != nil {
			log.Printf("   ❌ %v", err)
			failCount++
			continue
		}

		translation := ""
		if paired {
			translation, err = readText(extractor, translationPath)
			if err != nil {
				log.Printf("   ❌ %v", err)
				failCount++
				continue
			}
		}

		err = memory.Remember(ctx, services.MemoryEntry{
			DocID:          filepath.Base(sourcePath),
			SourceLanguage: src,
			TargetLanguage: dst,
			Text:           text,
			Translation:    translation,
		})
		if err != nil {
			log.Printf("   ❌ Failed to store: %v", err)
			failCount++
			continue
		}

		log.Printf("   ✅ Stored %d characters", len(text))
		successCount++
	}

	log.Printf("\n📊 Ingestion finished: %d succeeded, %d failed", successCount, failCount)
	if failCount > 0 {
		os.Exit(1)
	}
}

func readText(extractor services.TextExtractor, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extractor.ExtractText(filepath.Base(path), data)
}
