package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
)

func uploadedDocumentID(t *testing.T, srv *testServer) string {
	t.Helper()
	status, body := srv.do(t, multipartUpload(t, "cv.txt", []byte("Jane Doe\nGo engineer")))
	if status != fiber.StatusCreated {
		t.Fatalf("upload status = %d (%v)", status, body)
	}
	return body["id"].(string)
}

func TestCompareResumeJob(t *testing.T) {
	srv := newTestServer()
	id := uploadedDocumentID(t, srv)

	status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/compare-resume-job", models.ResumeJobComparisonRequest{
		ResumeDocumentID: id,
		JobDescription:   "Senior Go engineer",
	}))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", status, body)
	}
	if body["resume_filename"] != "cv.txt" {
		t.Fatalf("resume_filename = %v", body["resume_filename"])
	}
	if body["comparison"] != "report for Jane Doe\nGo engineer vs Senior Go engineer" {
		t.Fatalf("comparison = %v", body["comparison"])
	}
	job, _ := body["job_analysis"].(map[string]any)
	if job["job_level"] != "senior" {
		t.Fatalf("job_analysis = %v", body["job_analysis"])
	}
	if len(srv.analyzer.analyzed) != 1 {
		t.Fatalf("stored analysis should be reused, analyzed %d times", len(srv.analyzer.analyzed))
	}
}

func TestCompareResumeJobRejections(t *testing.T) {
	srv := newTestServer()
	id := uploadedDocumentID(t, srv)

	cases := []struct {
		name string
		req  models.ResumeJobComparisonRequest
		want int
	}{
		{name: "empty job", req: models.ResumeJobComparisonRequest{ResumeDocumentID: id, JobDescription: " "}, want: fiber.StatusBadRequest},
		{name: "invalid id", req: models.ResumeJobComparisonRequest{ResumeDocumentID: "nope", JobDescription: "Go"}, want: fiber.StatusBadRequest},
		{name: "unknown document", req: models.ResumeJobComparisonRequest{ResumeDocumentID: uuid.New().String(), JobDescription: "Go"}, want: fiber.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/compare-resume-job", tc.req))
			if status != tc.want {
				t.Fatalf("status = %d, want %d (%v)", status, tc.want, body)
			}
		})
	}
}

func TestQuickRatingAnalyzesDocumentWithoutReport(t *testing.T) {
	srv := newTestServer()
	doc := &models.Document{OriginalFileName: "old.txt", FileType: "txt", ExtractedText: "Legacy upload"}
	if err := srv.docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/quick-resume-rating", models.QuickRatingRequest{
		ResumeDocumentID: doc.ID.String(),
	}))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", status, body)
	}
	if body["resume_filename"] != "old.txt" || body["quick_rating"] != "8/10 for report for Legacy upload" {
		t.Fatalf("unexpected body %v", body)
	}

	status, _ = srv.do(t, jsonRequest(http.MethodPost, "/api/v1/quick-resume-rating", models.QuickRatingRequest{
		ResumeDocumentID: uuid.New().String(),
	}))
	if status != fiber.StatusNotFound {
		t.Fatalf("unknown document status = %d, want 404", status)
	}
}

func TestDownloadDocumentFile(t *testing.T) {
	srv := newTestServer()
	content := []byte("Jane Doe\nGo engineer")
	_, body := srv.do(t, multipartUpload(t, "cv.txt", content))

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+body["id"].(string)+"/file", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderContentType); got != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	if got := resp.Header.Get(fiber.HeaderContentDisposition); got != `attachment; filename="cv.txt"` {
		t.Fatalf("content disposition = %q", got)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != string(content) {
		t.Fatalf("body = %q, want the original upload", data)
	}

	if status, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+uuid.New().String()+"/file", nil)); status != fiber.StatusNotFound {
		t.Fatalf("unknown document status = %d, want 404", status)
	}
}
