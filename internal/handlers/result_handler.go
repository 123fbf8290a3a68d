package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type ResultHandler struct {
	pipeline services.PipelineService
}

func NewResultHandler(pipeline services.PipelineService) *ResultHandler {
	return &ResultHandler{
		pipeline: pipeline,
	}
}

// HandleGetResult handles GET /analyses/:id.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	analysisID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
		})
	}

	analysis, err := h.pipeline.GetAnalysis(c.UserContext(), analysisID)
	if err != nil {
		return respondError(c, err)
	}

	response := models.ResultResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	}

	switch analysis.Status {
	case models.StatusCompleted:
		response.Result = analysis.Result
	case models.StatusFailed:
		response.FailedStage = analysis.FailedStage
		response.ErrorMessage = analysis.ErrorMessage
	}

	return c.JSON(response)
}
