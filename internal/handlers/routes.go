package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Jobs      *JobHandler
	Premium   *PremiumHandler
	Files     *FileHandler
	Profiles  *ProfileHandler
	Assistant *AssistantHandler
}

// RegisterRoutes mounts the API under /api/v1. Everything but /health
// goes through authMiddleware.
func RegisterRoutes(app *fiber.App, h Handlers, authMiddleware fiber.Handler) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	secured := api.Group("", authMiddleware)

	secured.Get("/quote", h.Jobs.HandleQuote)

	jobs := secured.Group("/jobs")
	jobs.Post("/", h.Jobs.HandleSubmit)
	jobs.Get("/open", h.Jobs.HandleListOpen)
	jobs.Get("/working", h.Jobs.HandleListWorking)
	jobs.Get("/history", h.Jobs.HandleListHistory)
	jobs.Get("/submitted", h.Jobs.HandleListSubmitted)
	jobs.Get("/:id", h.Jobs.HandleGet)
	jobs.Post("/:id/accept", h.Jobs.HandleAccept)
	jobs.Post("/:id/return", h.Jobs.HandleReturn)
	jobs.Post("/:id/rating", h.Jobs.HandleRate)

	premium := secured.Group("/premium")
	premium.Post("/translate", h.Premium.HandleTranslate)
	premium.Post("/voice-over", h.Premium.HandleVoiceOver)

	files := secured.Group("/files")
	files.Get("/:id", h.Files.HandleGet)
	files.Get("/:id/download", h.Files.HandleDownload)
	files.Get("/:id/url", h.Files.HandleURL)

	profile := secured.Group("/profile")
	profile.Get("/", h.Profiles.HandleGet)
	profile.Patch("/", h.Profiles.HandleUpdate)
	profile.Post("/languages", h.Profiles.HandleAddLanguage)
	profile.Delete("/languages/:code", h.Profiles.HandleRemoveLanguage)
	profile.Post("/avatar", h.Profiles.HandleUploadAvatar)
	profile.Get("/avatar/url", h.Profiles.HandleAvatarURL)

	secured.Post("/assistant/chat", h.Assistant.HandleChat)
}
