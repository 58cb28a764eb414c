package handlers

import (
	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/services"
)

type AssistantHandler struct {
	assistant services.AssistantService
}

func NewAssistantHandler(assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

func (h *AssistantHandler) HandleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	reply, err := h.assistant.Chat(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(models.ChatResponse{Response: reply})
}
