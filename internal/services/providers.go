package services

import (
	"context"
	"fmt"
	"strings"
)

type TranslationRequest struct {
	SourceLanguage string
	TargetLanguage string
	Text           string
	References     []MemoryMatch
}

// Translator turns a whole document into the target language.
type Translator interface {
	Translate(ctx context.Context, req TranslationRequest) (string, error)
}

// VoiceSynthesizer renders text as speech and returns MP3 audio.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

type geminiTranslator struct {
	gemini  GeminiService
	prompts *PromptBuilder
}

func NewGeminiTranslator(gemini GeminiService, prompts *PromptBuilder) Translator {
	return &geminiTranslator{gemini: gemini, prompts: prompts}
}

func (t *geminiTranslator) Translate(ctx context.Context, req TranslationRequest) (string, error) {
	prompt := t.prompts.BuildTranslationPrompt(req.SourceLanguage, req.TargetLanguage, req.Text, req.References)

	text, err := t.gemini.GenerateText(ctx, prompt, 0.2)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty translation")
	}
	return text, nil
}
