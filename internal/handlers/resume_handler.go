package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type ResumeHandler struct {
	docRepo     repositories.DocumentRepository
	analyzer    services.ResumeAnalyzer
	jobAnalyzer services.JobAnalyzer
}

func NewResumeHandler(
	docRepo repositories.DocumentRepository,
	analyzer services.ResumeAnalyzer,
	jobAnalyzer services.JobAnalyzer,
) *ResumeHandler {
	return &ResumeHandler{
		docRepo:     docRepo,
		analyzer:    analyzer,
		jobAnalyzer: jobAnalyzer,
	}
}

// HandleCompare handles POST /compare-resume-job.
func (h *ResumeHandler) HandleCompare(c *fiber.Ctx) error {
	var req models.ResumeJobComparisonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return respondError(c, &services.ValidationError{Field: "job_description", Message: "job description cannot be empty"})
	}

	ctx := c.UserContext()
	doc, analysis, err := h.resumeAnalysis(ctx, req.ResumeDocumentID)
	if err != nil {
		return respondError(c, err)
	}

	job, err := h.jobAnalyzer.Analyze(ctx, req.JobDescription)
	if err != nil {
		return respondError(c, err)
	}

	comparison, err := h.analyzer.Compare(ctx, analysis, job, req.JobDescription)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.ResumeJobComparisonResponse{
		ResumeFileName: doc.OriginalFileName,
		JobAnalysis:    job,
		Comparison:     comparison,
	})
}

// HandleQuickRating handles POST /quick-resume-rating.
func (h *ResumeHandler) HandleQuickRating(c *fiber.Ctx) error {
	var req models.QuickRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	ctx := c.UserContext()
	doc, analysis, err := h.resumeAnalysis(ctx, req.ResumeDocumentID)
	if err != nil {
		return respondError(c, err)
	}

	rating, err := h.analyzer.QuickRate(ctx, analysis)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.QuickRatingResponse{
		ResumeFileName: doc.OriginalFileName,
		QuickRating:    rating,
	})
}

// resumeAnalysis loads an uploaded document and its report, producing the
// report now when the upload was stored without one.
func (h *ResumeHandler) resumeAnalysis(ctx context.Context, rawID string) (*models.Document, string, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, "", &services.ValidationError{Field: "resume_document_id", Message: "invalid document ID format"}
	}

	doc, err := h.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if doc.ResumeAnalysis != "" {
		return doc, doc.ResumeAnalysis, nil
	}

	analysis, err := h.analyzer.AnalyzeResume(ctx, doc.ExtractedText)
	if err != nil {
		return nil, "", err
	}
	return doc, analysis, nil
}
