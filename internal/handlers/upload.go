package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/services"
)

// readUpload loads the multipart file field into memory.
func readUpload(c *fiber.Ctx, field string, maxFileSize int64) (services.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return services.Upload{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s file is required", field))
	}

	if maxFileSize > 0 && header.Size > maxFileSize {
		return services.Upload{}, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("file too large. Max size: %d bytes", maxFileSize))
	}

	src, err := header.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func optionalForm(c *fiber.Ctx, key string) *string {
	if v := c.FormValue(key); v != "" {
		return &v
	}
	return nil
}
