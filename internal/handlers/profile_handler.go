package handlers

import (
	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
	maxFileSize    int64
}

func NewProfileHandler(profileService services.ProfileService, maxFileSize int64) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, maxFileSize: maxFileSize}
}

func (h *ProfileHandler) HandleGet(c *fiber.Ctx) error {
	profile, err := h.profileService.Get(c.UserContext(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.profileService.Update(c.UserContext(), UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) HandleAddLanguage(c *fiber.Ctx) error {
	var req models.LanguageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.profileService.AddLanguage(c.UserContext(), UserID(c), req.Language)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *ProfileHandler) HandleRemoveLanguage(c *fiber.Ctx) error {
	profile, err := h.profileService.RemoveLanguage(c.UserContext(), UserID(c), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) HandleUploadAvatar(c *fiber.Ctx) error {
	upload, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		return err
	}

	profile, err := h.profileService.UploadAvatar(c.UserContext(), UserID(c), upload)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) HandleAvatarURL(c *fiber.Ctx) error {
	profile, err := h.profileService.Get(c.UserContext(), UserID(c))
	if err != nil {
		return err
	}

	url, err := h.profileService.AvatarURL(c.UserContext(), profile)
	if err != nil {
		return err
	}
	return c.JSON(models.FileURLResponse{ID: profile.ID.String(), URL: url})
}
