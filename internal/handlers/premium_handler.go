package handlers

import (
	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/services"
)

type PremiumHandler struct {
	premiumService services.PremiumService
	maxFileSize    int64
}

func NewPremiumHandler(premiumService services.PremiumService, maxFileSize int64) *PremiumHandler {
	return &PremiumHandler{premiumService: premiumService, maxFileSize: maxFileSize}
}

func (h *PremiumHandler) HandleTranslate(c *fiber.Ctx) error {
	upload, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		return err
	}

	job, err := h.premiumService.Translate(c.UserContext(), UserID(c), services.PremiumTranslateInput{
		SourceLanguage: c.FormValue("source_language"),
		TargetLanguage: c.FormValue("target_language"),
		File:           upload,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(premiumResponse(job))
}

func (h *PremiumHandler) HandleVoiceOver(c *fiber.Ctx) error {
	upload, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		return err
	}

	job, err := h.premiumService.VoiceOver(c.UserContext(), UserID(c), services.VoiceOverInput{
		Language: c.FormValue("language"),
		File:     upload,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(premiumResponse(job))
}

func premiumResponse(job *models.Job) models.PremiumResponse {
	resp := models.PremiumResponse{Job: job}
	if job.ReturnedFileID != nil {
		resp.ReturnedFileID = job.ReturnedFileID.String()
	}
	return resp
}
