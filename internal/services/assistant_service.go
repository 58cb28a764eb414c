package services

import (
	"context"
	"fmt"
	"strings"

	"sirlizard/language-for-you/internal/models"
)

const (
	maxChatHistory       = 40
	maxChatMessageLength = 8000
)

type AssistantService interface {
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
}

type assistantService struct {
	gemini GeminiService
	retry  RetryPolicy
}

func NewAssistantService(gemini GeminiService, retry RetryPolicy) AssistantService {
	return &assistantService{gemini: gemini, retry: retry}
}

func (s *assistantService) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}
	if len(message) > maxChatMessageLength {
		return "", fmt.Errorf("%w: message is too long", ErrValidation)
	}

	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	for _, msg := range history {
		switch msg.Role {
		case "user", "assistant", "model":
		default:
			return "", fmt.Errorf("%w: unknown history role %q", ErrValidation, msg.Role)
		}
	}

	var reply string
	err := s.retry.Do(ctx, "chat", func(ctx context.Context) error {
		out, err := s.gemini.Chat(ctx, AssistantInstruction, history, message)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
