package handlers

import (
	"github.com/gofiber/fiber/v2"

	"sirlizard/language-for-you/internal/models"
	"sirlizard/language-for-you/internal/services"
)

type JobHandler struct {
	jobService  services.JobService
	maxFileSize int64
}

func NewJobHandler(jobService services.JobService, maxFileSize int64) *JobHandler {
	return &JobHandler{jobService: jobService, maxFileSize: maxFileSize}
}

func (h *JobHandler) HandleQuote(c *fiber.Ctx) error {
	size := int64(c.QueryInt("size", 0))

	quote, err := h.jobService.Quote(c.Query("language"), size)
	if err != nil {
		return err
	}
	return c.JSON(quote)
}

func (h *JobHandler) HandleSubmit(c *fiber.Ctx) error {
	upload, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		return err
	}

	job, err := h.jobService.Submit(c.UserContext(), UserID(c), services.SubmitJobInput{
		Language: c.FormValue("language"),
		Notes:    optionalForm(c, "notes"),
		File:     upload,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *JobHandler) HandleGet(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	job, err := h.jobService.Get(c.UserContext(), id, UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *JobHandler) HandleListOpen(c *fiber.Ctx) error {
	jobs, err := h.jobService.ListOpen(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(nonNil(jobs))
}

func (h *JobHandler) HandleListWorking(c *fiber.Ctx) error {
	jobs, err := h.jobService.ListWorking(c.UserContext(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(nonNil(jobs))
}

func (h *JobHandler) HandleListHistory(c *fiber.Ctx) error {
	jobs, err := h.jobService.ListHistory(c.UserContext(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(nonNil(jobs))
}

func (h *JobHandler) HandleListSubmitted(c *fiber.Ctx) error {
	jobs, err := h.jobService.ListSubmitted(c.UserContext(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(nonNil(jobs))
}

func (h *JobHandler) HandleAccept(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	job, err := h.jobService.Accept(c.UserContext(), id, UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *JobHandler) HandleReturn(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	upload, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		return err
	}

	job, err := h.jobService.Return(c.UserContext(), id, UserID(c), upload)
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *JobHandler) HandleRate(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req models.RateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	job, err := h.jobService.Rate(c.UserContext(), id, UserID(c), req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func nonNil(jobs []models.Job) []models.Job {
	if jobs == nil {
		return []models.Job{}
	}
	return jobs
}
