package models

type UploadResponse struct {
	ID            string `json:"id"`
	OriginalName  string `json:"original_name"`
	FileType      string `json:"file_type"`
	SizeBytes     int64  `json:"size_bytes"`
	ExtractedText string `json:"extracted_text"`
	Analysis      string `json:"analysis,omitempty"`
}

type EvaluateRequest struct {
	ResumeText       string `json:"resume_text"`
	ResumeDocumentID string `json:"resume_document_id"`
	JobDescription   string `json:"job_description"`
}

type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *AnalysisResult `json:"result,omitempty"`
	FailedStage  *string         `json:"failed_stage,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

type JobDescriptionRequest struct {
	JobDescription string `json:"job_description"`
}

type JobDescriptionResponse struct {
	Analysis StageOutput[JobAnalysis] `json:"analysis"`
	Fallback bool                     `json:"fallback"`
}

type ResumeJobComparisonRequest struct {
	ResumeDocumentID string `json:"resume_document_id"`
	JobDescription   string `json:"job_description"`
}

type ResumeJobComparisonResponse struct {
	ResumeFileName string                   `json:"resume_filename"`
	JobAnalysis    StageOutput[JobAnalysis] `json:"job_analysis"`
	Comparison     string                   `json:"comparison"`
}

type QuickRatingRequest struct {
	ResumeDocumentID string `json:"resume_document_id"`
}

type QuickRatingResponse struct {
	ResumeFileName string `json:"resume_filename"`
	QuickRating    string `json:"quick_rating"`
}
