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

func TestEquivalent(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Python", "python", true},
		{"React", "React.js", true},
		{"Amazon Web Services", "AWS", false},
		{"Go", "Golang", true},
		{"Project Management", "management of people", true},
		{"C#", "C++", false},
		{"Kubernetes", "Docker", false},
		{"", "Python", false},
		{"UI", "UX", false},
	}

	for _, tc := range cases {
		if got := Equivalent(tc.a, tc.b); got != tc.want {
			t.Errorf("Equivalent(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		if got := Equivalent(tc.b, tc.a); got != tc.want {
			t.Errorf("Equivalent(%q, %q) = %v, want %v (not symmetric)", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestMatchSkillSets(t *testing.T) {
	result := MatchSkillSets(
		models.SkillSet{"Python", "React"},
		models.SkillSet{"python", "React.js", "AWS"},
	)

	if want := (models.SkillSet{"Python", "React"}); !reflect.DeepEqual(result.MatchingSkills, want) {
		t.Fatalf("matching = %v, want %v", result.MatchingSkills, want)
	}
	if want := (models.SkillSet{"AWS"}); !reflect.DeepEqual(result.MissingSkills, want) {
		t.Fatalf("missing = %v, want %v", result.MissingSkills, want)
	}
	if result.MatchPercentage != 66 {
		t.Fatalf("match percentage = %d, want 66", result.MatchPercentage)
	}
	if !result.FallbackUsed {
		t.Fatalf("expected fallback flag")
	}
}

func TestMatchSkillSetsNoDuplicateMatches(t *testing.T) {
	result := MatchSkillSets(
		models.SkillSet{"JavaScript"},
		models.SkillSet{"javascript", "JavaScript ES6"},
	)

	if want := (models.SkillSet{"JavaScript"}); !reflect.DeepEqual(result.MatchingSkills, want) {
		t.Fatalf("matching = %v, want %v", result.MatchingSkills, want)
	}
	if len(result.MissingSkills) != 0 {
		t.Fatalf("expected no missing skills, got %v", result.MissingSkills)
	}
	if result.MatchPercentage != 50 {
		t.Fatalf("match percentage = %d, want 50", result.MatchPercentage)
	}
}

func TestMatchSkillSetsEmptyJob(t *testing.T) {
	result := MatchSkillSets(models.SkillSet{"Go"}, nil)

	if result.MatchPercentage != 0 {
		t.Fatalf("match percentage = %d, want 0", result.MatchPercentage)
	}
	if result.JobSkills == nil || result.MatchingSkills == nil || result.MissingSkills == nil {
		t.Fatalf("expected non-nil skill sets, got %+v", result)
	}
}

func TestMatchPercentage(t *testing.T) {
	cases := []struct {
		matching, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{5, 3, 100},
		{-1, 3, 0},
	}

	for _, tc := range cases {
		if got := MatchPercentage(tc.matching, tc.total); got != tc.want {
			t.Errorf("MatchPercentage(%d, %d) = %d, want %d", tc.matching, tc.total, got, tc.want)
		}
	}
}

func TestSkillMatcherNormalizesModelAnswer(t *testing.T) {
	provider := newScriptedProvider().on(promptSkillMatch, "```json\n"+`{
  "resume_skills": ["Go", "Docker"],
  "job_skills": ["Go", "Docker", "Kubernetes"],
  "matching_skills": ["Go", "Go", "Docker"],
  "missing_skills": ["Kubernetes"],
  "match_percentage": 95,
  "summary": "strong backend fit"
}`+"\n```")

	matcher := NewSkillMatcher(provider, NewSkillExtractor(provider, 256, time.Second, zap.NewNop()), 512, time.Second, zap.NewNop())

	result, err := matcher.Match(context.Background(), "resume", "job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := (models.SkillSet{"Go", "Docker"}); !reflect.DeepEqual(result.MatchingSkills, want) {
		t.Fatalf("matching = %v, want %v", result.MatchingSkills, want)
	}
	if result.MatchPercentage != 66 {
		t.Fatalf("match percentage = %d, want recomputed 66", result.MatchPercentage)
	}
	if result.FallbackUsed {
		t.Fatalf("structured answer must not be marked as fallback")
	}
	if provider.calls() != 1 {
		t.Fatalf("expected a single provider call, got %d", provider.calls())
	}
}

func TestSkillMatcherFallsBackToExtraction(t *testing.T) {
	provider := newScriptedProvider().
		on(promptSkillMatch, "Sure! The candidate knows Python and React.").
		on(promptExtraction+" resume", "Python, React").
		on(promptExtraction+" job description", "python, React.js, AWS")

	matcher := NewSkillMatcher(provider, NewSkillExtractor(provider, 256, time.Second, zap.NewNop()), 512, time.Second, zap.NewNop())

	result, err := matcher.Match(context.Background(), "resume", "job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.FallbackUsed {
		t.Fatalf("expected fallback flag")
	}
	if want := (models.SkillSet{"AWS"}); !reflect.DeepEqual(result.MissingSkills, want) {
		t.Fatalf("missing = %v, want %v", result.MissingSkills, want)
	}
	if result.MatchPercentage != 66 {
		t.Fatalf("match percentage = %d, want 66", result.MatchPercentage)
	}
	if provider.calls() != 3 {
		t.Fatalf("expected 3 provider calls, got %d", provider.calls())
	}
}

func TestSkillMatcherProviderErrorIsTerminal(t *testing.T) {
	provider := newScriptedProvider().fail(promptSkillMatch, errors.New("quota exceeded"))
	matcher := NewSkillMatcher(provider, NewSkillExtractor(provider, 256, time.Second, zap.NewNop()), 512, time.Second, zap.NewNop())

	_, err := matcher.Match(context.Background(), "resume", "job")

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageSkillMatch {
		t.Fatalf("stage = %q, want %q", stageErr.Stage, StageSkillMatch)
	}
	if provider.calls() != 1 {
		t.Fatalf("expected no extraction calls after a provider failure, got %d calls", provider.calls())
	}
}
