package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/models"
)

func TestSplitSkillList(t *testing.T) {
	got := splitSkillList("  python, , javascript ,aws,\n docker  ")
	want := models.SkillSet{"python", "javascript", "aws", "docker"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitSkillList = %v, want %v", got, want)
	}
}

func TestExtractSkillsProviderFailure(t *testing.T) {
	provider := newScriptedProvider().fail(promptExtraction, errors.New("timeout"))
	extractor := NewSkillExtractor(provider, 256, time.Second, zap.NewNop())

	skills := extractor.ExtractSkills(context.Background(), "some resume", "resume")
	if skills == nil || len(skills) != 0 {
		t.Fatalf("expected empty non-nil set, got %#v", skills)
	}
}
