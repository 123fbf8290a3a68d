package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type stubJobAnalyzer struct {
	out models.StageOutput[models.JobAnalysis]
}

func (s stubJobAnalyzer) Analyze(_ context.Context, job string) (models.StageOutput[models.JobAnalysis], error) {
	if job == "" {
		return models.StageOutput[models.JobAnalysis]{}, &services.ValidationError{Field: "job_description", Message: "job description cannot be empty"}
	}
	return s.out, nil
}

func TestJobHandler(t *testing.T) {
	app := fiber.New()
	handler := NewJobHandler(stubJobAnalyzer{out: models.FallbackOutput[models.JobAnalysis]("free text")})
	app.Post("/analyze-job-description", handler.HandleAnalyze)
	srv := &testServer{app: app}

	status, body := srv.do(t, jsonRequest(http.MethodPost, "/analyze-job-description", models.JobDescriptionRequest{JobDescription: "Go engineer"}))
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["fallback"] != true {
		t.Fatalf("expected fallback flag, got %v", body)
	}
	analysis, _ := body["analysis"].(map[string]any)
	if analysis["raw_text"] != "free text" {
		t.Fatalf("unexpected analysis %v", body["analysis"])
	}

	status, _ = srv.do(t, jsonRequest(http.MethodPost, "/analyze-job-description", models.JobDescriptionRequest{}))
	if status != fiber.StatusBadRequest {
		t.Fatalf("empty job status = %d, want 400", status)
	}
}
