package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr *services.ValidationError
		stageErr      *services.StageError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnsupportedFileType):
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &stageErr):
		code := fiber.StatusBadGateway
		if stageErr.Timeout() {
			code = fiber.StatusGatewayTimeout
		}
		return c.Status(code).JSON(fiber.Map{
			"error":        "model provider failure",
			"failed_stage": stageErr.Stage,
			"detail":       stageErr.Err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
