package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

type stubPipeline struct {
	repo      repositories.AnalysisRepository
	analyzeFn func(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	lastReq   models.AnalysisRequest
}

func (s *stubPipeline) Run(ctx context.Context, _ string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	return s.Analyze(ctx, req)
}

func (s *stubPipeline) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	req, err := services.ValidateRequest(req)
	if err != nil {
		return nil, err
	}
	s.lastReq = req
	return s.analyzeFn(ctx, req)
}

func (s *stubPipeline) Submit(ctx context.Context, req models.AnalysisRequest) (*models.Analysis, error) {
	req, err := services.ValidateRequest(req)
	if err != nil {
		return nil, err
	}
	analysis := &models.Analysis{ID: uuid.New(), Status: models.StatusQueued, ResumeText: req.ResumeText, JobDescription: req.JobDescription}
	return analysis, s.repo.Create(ctx, analysis)
}

func (s *stubPipeline) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	return s.repo.FindByID(ctx, id)
}

type stubWorker struct {
	enqueued []uuid.UUID
}

func (w *stubWorker) Start(context.Context)  {}
func (w *stubWorker) Stop()                  {}
func (w *stubWorker) EnqueueJob(id uuid.UUID) { w.enqueued = append(w.enqueued, id) }

type stubStorage struct {
	saved map[string][]byte
}

func (s *stubStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	key := "k-" + name
	s.saved[key] = data
	return key, nil
}
func (s *stubStorage) Load(_ context.Context, key string) ([]byte, error) { return s.saved[key], nil }
func (s *stubStorage) Delete(_ context.Context, key string) error {
	delete(s.saved, key)
	return nil
}
func (s *stubStorage) EnsureReady(context.Context) error { return nil }

type stubResumeAnalyzer struct {
	mu       sync.Mutex
	analyzed []string
}

func (s *stubResumeAnalyzer) AnalyzeResume(_ context.Context, resumeText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzed = append(s.analyzed, resumeText)
	return "report for " + resumeText, nil
}

func (s *stubResumeAnalyzer) Compare(_ context.Context, resumeAnalysis string, _ models.StageOutput[models.JobAnalysis], jobDescription string) (string, error) {
	return resumeAnalysis + " vs " + jobDescription, nil
}

func (s *stubResumeAnalyzer) QuickRate(_ context.Context, resumeAnalysis string) (string, error) {
	return "8/10 for " + resumeAnalysis, nil
}

type testServer struct {
	app      *fiber.App
	pipeline *stubPipeline
	worker   *stubWorker
	docs     repositories.DocumentRepository
	repo     repositories.AnalysisRepository
	analyzer *stubResumeAnalyzer
}

func newTestServer() *testServer {
	repo := repositories.NewMemoryAnalysisRepository()
	docs := repositories.NewMemoryDocumentRepository()
	pipeline := &stubPipeline{
		repo: repo,
		analyzeFn: func(_ context.Context, _ models.AnalysisRequest) (*models.AnalysisResult, error) {
			return &models.AnalysisResult{AnalysisID: "a-1", WorkflowType: models.WorkflowSequential}, nil
		},
	}
	worker := &stubWorker{}
	analyzer := &stubResumeAnalyzer{}
	jobAnalyzer := stubJobAnalyzer{out: models.StructuredOutput(&models.JobAnalysis{JobLevel: "senior"})}

	evaluate := NewEvaluationHandler(pipeline, docs, worker, time.Second)
	result := NewResultHandler(pipeline)
	upload := NewUploadHandler(docs, &stubStorage{saved: map[string][]byte{}}, services.NewTextExtractor(), analyzer, 1024, zap.NewNop())
	resume := NewResumeHandler(docs, analyzer, jobAnalyzer)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/evaluate-resume", evaluate.HandleEvaluate)
	api.Post("/analyses", evaluate.HandleSubmit)
	api.Get("/analyses/:id", result.HandleGetResult)
	api.Post("/upload-resume", upload.HandleUpload)
	api.Get("/documents/:id", upload.HandleGetDocument)
	api.Get("/documents/:id/file", upload.HandleGetDocumentFile)
	api.Post("/compare-resume-job", resume.HandleCompare)
	api.Post("/quick-resume-rating", resume.HandleQuickRating)

	return &testServer{app: app, pipeline: pipeline, worker: worker, docs: docs, repo: repo, analyzer: analyzer}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("invalid json %s: %v", raw, err)
		}
	}
	return resp.StatusCode, body
}

func jsonRequest(method, path string, payload any) *http.Request {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestEvaluateRejectsEmptyJobDescription(t *testing.T) {
	srv := newTestServer()

	status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/evaluate-resume", models.EvaluateRequest{
		ResumeText:     "Jane Doe, Go engineer",
		JobDescription: "   ",
	}))

	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["field"] != "job_description" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestEvaluateReturnsResult(t *testing.T) {
	srv := newTestServer()

	status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/evaluate-resume", models.EvaluateRequest{
		ResumeText:     "Jane Doe, Go engineer",
		JobDescription: "Go engineer wanted",
	}))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", status, body)
	}
	if body["workflow_type"] != models.WorkflowSequential {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestEvaluateMapsStageErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "provider failure", err: &services.StageError{Stage: services.StageEvaluation, Err: errors.New("503")}, want: fiber.StatusBadGateway},
		{name: "provider timeout", err: &services.StageError{Stage: services.StageRating, Err: context.DeadlineExceeded}, want: fiber.StatusGatewayTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer()
			srv.pipeline.analyzeFn = func(context.Context, models.AnalysisRequest) (*models.AnalysisResult, error) {
				return nil, tc.err
			}

			status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/evaluate-resume", models.EvaluateRequest{
				ResumeText:     "resume",
				JobDescription: "job",
			}))

			if status != tc.want {
				t.Fatalf("status = %d, want %d", status, tc.want)
			}
			var stageErr *services.StageError
			errors.As(tc.err, &stageErr)
			if body["failed_stage"] != stageErr.Stage {
				t.Fatalf("failed_stage = %v, want %q", body["failed_stage"], stageErr.Stage)
			}
		})
	}
}

func TestEvaluateResolvesDocumentID(t *testing.T) {
	srv := newTestServer()
	doc := &models.Document{OriginalFileName: "cv.txt", FileType: "txt", ExtractedText: "Text from upload"}
	if err := srv.docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	status, _ := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/evaluate-resume", models.EvaluateRequest{
		ResumeDocumentID: doc.ID.String(),
		JobDescription:   "Go engineer wanted",
	}))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if srv.pipeline.lastReq.ResumeText != "Text from upload" {
		t.Fatalf("resume text = %q", srv.pipeline.lastReq.ResumeText)
	}
}

func TestEvaluateUnknownDocument(t *testing.T) {
	srv := newTestServer()

	status, _ := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/evaluate-resume", models.EvaluateRequest{
		ResumeDocumentID: uuid.New().String(),
		JobDescription:   "Go engineer wanted",
	}))

	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestSubmitQueuesAnalysis(t *testing.T) {
	srv := newTestServer()

	status, body := srv.do(t, jsonRequest(http.MethodPost, "/api/v1/analyses", models.EvaluateRequest{
		ResumeText:     "resume",
		JobDescription: "job",
	}))

	if status != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", status)
	}
	if body["status"] != string(models.StatusQueued) {
		t.Fatalf("unexpected body %v", body)
	}
	if len(srv.worker.enqueued) != 1 || srv.worker.enqueued[0].String() != body["id"] {
		t.Fatalf("expected the analysis to be enqueued, got %v", srv.worker.enqueued)
	}

	status, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+body["id"].(string), nil))
	if status != fiber.StatusOK || body["status"] != string(models.StatusQueued) {
		t.Fatalf("status = %d body = %v", status, body)
	}
}

func TestGetResultFailedAnalysis(t *testing.T) {
	srv := newTestServer()
	analysis := &models.Analysis{ResumeText: "r", JobDescription: "j"}
	_ = srv.repo.Create(context.Background(), analysis)
	_ = srv.repo.UpdateError(context.Background(), analysis.ID, services.StageRating, "bad gateway")

	status, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysis.ID.String(), nil))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != string(models.StatusFailed) || body["failed_stage"] != services.StageRating {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestGetResultUnknownAndInvalidID(t *testing.T) {
	srv := newTestServer()

	if status, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+uuid.New().String(), nil)); status != fiber.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", status)
	}
	if status, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/not-a-uuid", nil)); status != fiber.StatusBadRequest {
		t.Fatalf("invalid id status = %d, want 400", status)
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload-resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadTextResume(t *testing.T) {
	srv := newTestServer()

	status, body := srv.do(t, multipartUpload(t, "cv.txt", []byte("Jane Doe\n\nGo engineer\n")))
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201 (%v)", status, body)
	}
	if body["extracted_text"] != "Jane Doe\nGo engineer" || body["file_type"] != services.FileTypeTXT {
		t.Fatalf("unexpected body %v", body)
	}
	if body["analysis"] != "report for Jane Doe\nGo engineer" {
		t.Fatalf("analysis = %v", body["analysis"])
	}

	status, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+body["id"].(string), nil))
	if status != fiber.StatusOK || body["original_name"] != "cv.txt" {
		t.Fatalf("status = %d body = %v", status, body)
	}
}

func TestUploadRejections(t *testing.T) {
	srv := newTestServer()

	if status, _ := srv.do(t, multipartUpload(t, "cv.doc", []byte("legacy"))); status != fiber.StatusUnsupportedMediaType {
		t.Fatalf("unsupported type status = %d, want 415", status)
	}
	if status, _ := srv.do(t, multipartUpload(t, "cv.txt", bytes.Repeat([]byte("a"), 2048))); status != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("oversized status = %d, want 413", status)
	}
	if status, _ := srv.do(t, multipartUpload(t, "cv.pdf", []byte("not a pdf"))); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("broken pdf status = %d, want 422", status)
	}
}

func TestEvaluateStopsAtRequestTimeout(t *testing.T) {
	srv := newTestServer()
	srv.pipeline.analyzeFn = func(ctx context.Context, _ models.AnalysisRequest) (*models.AnalysisResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	handler := NewEvaluationHandler(srv.pipeline, srv.docs, srv.worker, 20*time.Millisecond)
	app := fiber.New()
	app.Post("/evaluate-resume", handler.HandleEvaluate)
	bounded := &testServer{app: app}

	start := time.Now()
	status, _ := bounded.do(t, jsonRequest(http.MethodPost, "/evaluate-resume", models.EvaluateRequest{
		ResumeText:     "resume",
		JobDescription: "job",
	}))

	if status != fiber.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", status)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("stalled run was not bounded by the request timeout, took %v", elapsed)
	}
}
