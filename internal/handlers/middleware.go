package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sirlizard/language-for-you/internal/auth"
	"sirlizard/language-for-you/internal/repositories"
)

const userIDKey = "userID"

// AuthMiddleware verifies the bearer token, makes sure the caller has a
// profile and stores the caller's id for UserID.
func AuthMiddleware(secret []byte, profiles repositories.ProfileRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimSpace(token), secret)
		if err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}

		if err := profiles.Ensure(c.UserContext(), userID); err != nil {
			return err
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated caller.
func UserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(userIDKey).(uuid.UUID)
	return id
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
