package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type JobHandler struct {
	analyzer services.JobAnalyzer
}

func NewJobHandler(analyzer services.JobAnalyzer) *JobHandler {
	return &JobHandler{analyzer: analyzer}
}

// HandleAnalyze handles POST /analyze-job-description.
func (h *JobHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req models.JobDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	analysis, err := h.analyzer.Analyze(c.UserContext(), req.JobDescription)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.JobDescriptionResponse{
		Analysis: analysis,
		Fallback: analysis.IsFallback(),
	})
}
