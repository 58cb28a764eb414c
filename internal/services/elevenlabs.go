package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"sirlizard/language-for-you/internal/config"
)

type elevenLabsService struct {
	http    *resty.Client
	apiKey  string
	baseURL string
	voiceID string
	modelID string
}

func NewElevenLabsService(cfg config.ElevenLabsConfig) VoiceSynthesizer {
	return &elevenLabsService{
		http:    resty.New().SetTimeout(120 * time.Second),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type textToSpeechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func (s *elevenLabsService) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, s.voiceID)

	// The multilingual model detects the language; the code is only a hint.
	code := strings.SplitN(language, "-", 2)[0]

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Accept", "audio/mpeg").
		SetHeader("xi-api-key", s.apiKey).
		SetBody(textToSpeechRequest{
			Text:          text,
			ModelID:       s.modelID,
			LanguageCode:  code,
			VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.5},
		}).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	if resp.IsError() {
		err := fmt.Errorf("elevenlabs text-to-speech: %s; body: %s", resp.Status(), resp.String())
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 && resp.StatusCode() != 429 {
			return nil, Permanent(err)
		}
		return nil, err
	}

	audio := resp.Body()
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned no audio")
	}
	return audio, nil
}
