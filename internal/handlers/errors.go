package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/auth"
	"sirlizard/language-for-you/internal/lifecycle"
	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/repositories"
	"sirlizard/language-for-you/internal/services"
)

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, lifecycle.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrDuplicateLanguage):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrValidation), errors.Is(err, lifecycle.ErrInvalidRating):
		return fiber.StatusBadRequest
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden), errors.Is(err, lifecycle.ErrNotAcceptor):
		return fiber.StatusForbidden
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrAlreadyRated),
		errors.Is(err, repositories.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrProvider):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// NewErrorHandler renders every error as an ErrorResponse. Internal errors
// are logged and reported without detail.
func NewErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)

		message := err.Error()
		if code == fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed",
				"method", c.Method(), "path", c.Path(), "error", err)
			message = "internal server error"
		} else if code == fiber.StatusBadGateway {
			logger.Warn(c.UserContext(), "provider failure",
				"method", c.Method(), "path", c.Path(), "error", err)
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Error: message,
			Code:  code,
		})
	}
}
