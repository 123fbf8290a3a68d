package models

import (
	"encoding/json"
	"testing"
)

func TestStageOutputMarshal(t *testing.T) {
	fallback, err := json.Marshal(FallbackOutput[EvaluationResult]("model prose"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(fallback) != `{"raw_text":"model prose"}` {
		t.Fatalf("fallback json = %s", fallback)
	}

	structured, err := json.Marshal(StructuredOutput(&JobAnalysis{JobLevel: "senior"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	_ = json.Unmarshal(structured, &fields)
	if fields["job_level"] != "senior" {
		t.Fatalf("structured json = %s", structured)
	}
	if _, ok := fields["raw_text"]; ok {
		t.Fatalf("structured output must not carry raw_text")
	}
}

func TestStageOutputUnmarshalDistinguishesVariants(t *testing.T) {
	var fb StageOutput[EvaluationResult]
	if err := json.Unmarshal([]byte(`{"raw_text":"prose"}`), &fb); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !fb.IsFallback() || fb.RawText() != "prose" {
		t.Fatalf("expected fallback, got %+v", fb)
	}

	var st StageOutput[EvaluationResult]
	if err := json.Unmarshal([]byte(`{"executive_summary":"ok","overall_score":"8/10"}`), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.IsFallback() || st.Structured.OverallScore != 8 {
		t.Fatalf("expected structured output, got %+v", st)
	}
	if st.RawText() != "" {
		t.Fatalf("structured output has no raw text")
	}
}
