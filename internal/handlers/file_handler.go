package handlers

import (
	"fmt"
	"mime"

	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/services"
)

type FileHandler struct {
	fileService services.FileService
}

func NewFileHandler(fileService services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

func (h *FileHandler) HandleGet(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	file, err := h.fileService.Get(c.UserContext(), id, UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(file)
}

func (h *FileHandler) HandleDownload(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	file, body, err := h.fileService.Open(c.UserContext(), id, UserID(c))
	if err != nil {
		return err
	}

	contentType := fiber.MIMEOctetStream
	if file.ContentType != nil && *file.ContentType != "" {
		contentType = *file.ContentType
	}
	size := -1
	if file.FileSize != nil {
		size = int(*file.FileSize)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))

	// The response closes body once it has been written.
	return c.SendStream(body, size)
}

func (h *FileHandler) HandleURL(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	url, err := h.fileService.URL(c.UserContext(), id, UserID(c))
	if err != nil {
		return fmt.Errorf("failed to resolve file url: %w", err)
	}
	return c.JSON(models.FileURLResponse{ID: id.String(), URL: url})
}
