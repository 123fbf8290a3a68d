package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type EvaluationHandler struct {
	pipeline       services.PipelineService
	docRepo        repositories.DocumentRepository
	worker         services.Worker
	requestTimeout time.Duration
}

func NewEvaluationHandler(
	pipeline services.PipelineService,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
	requestTimeout time.Duration,
) *EvaluationHandler {
	return &EvaluationHandler{
		pipeline:       pipeline,
		docRepo:        docRepo,
		worker:         worker,
		requestTimeout: requestTimeout,
	}
}

// HandleEvaluate handles POST /evaluate-resume and runs the pipeline inline.
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	// fasthttp never cancels the user context when the client goes away, so
	// the request timeout is what bounds an abandoned run.
	ctx := c.UserContext()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	result, err := h.pipeline.Analyze(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// HandleSubmit handles POST /analyses and queues the pipeline for the worker.
func (h *EvaluationHandler) HandleSubmit(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	analysis, err := h.pipeline.Submit(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	})
}

// parseRequest resolves resume_document_id into text when resume_text is empty.
func (h *EvaluationHandler) parseRequest(c *fiber.Ctx) (models.AnalysisRequest, error) {
	var body models.EvaluateRequest
	if err := c.BodyParser(&body); err != nil {
		return models.AnalysisRequest{}, &services.ValidationError{Field: "body", Message: "invalid request payload"}
	}

	req := models.AnalysisRequest{
		ResumeText:     body.ResumeText,
		JobDescription: body.JobDescription,
	}

	if strings.TrimSpace(req.ResumeText) == "" && body.ResumeDocumentID != "" {
		docID, err := uuid.Parse(body.ResumeDocumentID)
		if err != nil {
			return req, &services.ValidationError{Field: "resume_document_id", Message: "invalid resume_document_id format"}
		}

		doc, err := h.docRepo.FindByID(c.UserContext(), docID)
		if err != nil {
			return req, err
		}
		req.ResumeText = doc.ExtractedText
	}

	return services.ValidateRequest(req)
}
