package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

// Tokens of this many runes or fewer never establish equivalence on their own.
const minSignificantTokenLen = 2

type SkillMatcher interface {
	Match(ctx context.Context, resumeText, jobDescription string) (models.SkillMatchResult, error)
}

type skillMatcher struct {
	provider      ModelProvider
	extractor     SkillExtractor
	promptBuilder *PromptBuilder
	maxTokens     int32
	timeout       time.Duration
	log           *zap.Logger
}

func NewSkillMatcher(provider ModelProvider, extractor SkillExtractor, maxTokens int32, timeout time.Duration, log *zap.Logger) SkillMatcher {
	return &skillMatcher{
		provider:      provider,
		extractor:     extractor,
		promptBuilder: NewPromptBuilder(),
		maxTokens:     maxTokens,
		timeout:       timeout,
		log:           logger.OrNop(log),
	}
}

type skillMatchWire struct {
	ResumeSkills   []string `json:"resume_skills"`
	JobSkills      []string `json:"job_skills"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
	Summary        string   `json:"summary"`
}

// Match asks the provider for a joint answer and falls back to independent
// extraction plus local equivalence when that answer is not valid JSON.
// A provider failure on the joint call is terminal.
func (m *skillMatcher) Match(ctx context.Context, resumeText, jobDescription string) (models.SkillMatchResult, error) {
	prompt := m.promptBuilder.BuildSkillMatchPrompt(resumeText, jobDescription)

	response, err := callStage(ctx, m.provider, StageSkillMatch, prompt, GenerationConfig{
		MaxOutputTokens: m.maxTokens,
		JSONResponse:    true,
	}, m.timeout)
	if err != nil {
		return models.SkillMatchResult{}, err
	}

	if payload, ok := ParseResponse(response); ok {
		var wire skillMatchWire
		err := decodeInto(payload, &wire)
		if err == nil {
			return normalizeSkillMatch(wire), nil
		}
		m.log.Warn("skill match payload did not fit schema", zap.Error(err))
	}

	m.log.Info("skill match response not parseable, using fallback extraction",
		zap.String("preview", logger.TruncateForLog(response, 200)),
	)

	if err := ctx.Err(); err != nil {
		return models.SkillMatchResult{}, &StageError{Stage: StageSkillMatch, Err: err}
	}

	resumeSkills := m.extractor.ExtractSkills(ctx, resumeText, "resume")
	jobSkills := m.extractor.ExtractSkills(ctx, jobDescription, "job description")

	return MatchSkillSets(resumeSkills, jobSkills), nil
}

func normalizeSkillMatch(wire skillMatchWire) models.SkillMatchResult {
	result := models.SkillMatchResult{
		ResumeSkills:   nonNil(wire.ResumeSkills),
		JobSkills:      nonNil(wire.JobSkills),
		MatchingSkills: dedupe(wire.MatchingSkills),
		MissingSkills:  dedupe(wire.MissingSkills),
		Summary:        wire.Summary,
	}
	result.MatchPercentage = MatchPercentage(len(result.MatchingSkills), len(result.JobSkills))
	return result
}

// MatchSkillSets computes the overlap locally. For each job skill the first
// equivalent resume skill is recorded in its resume phrasing.
func MatchSkillSets(resumeSkills, jobSkills models.SkillSet) models.SkillMatchResult {
	matching := models.SkillSet{}
	missing := models.SkillSet{}
	seen := make(map[string]struct{})

	for _, jobSkill := range jobSkills {
		found := false
		for _, resumeSkill := range resumeSkills {
			if !Equivalent(resumeSkill, jobSkill) {
				continue
			}
			found = true
			if _, ok := seen[resumeSkill]; !ok {
				seen[resumeSkill] = struct{}{}
				matching = append(matching, resumeSkill)
			}
			break
		}
		if !found {
			missing = append(missing, jobSkill)
		}
	}

	return models.SkillMatchResult{
		ResumeSkills:    nonNil(resumeSkills),
		JobSkills:       nonNil(jobSkills),
		MatchingSkills:  matching,
		MissingSkills:   missing,
		MatchPercentage: MatchPercentage(len(matching), len(jobSkills)),
		Summary: fmt.Sprintf(
			"Skills analysis completed via fallback method. Found %d matching skills out of %d required skills.",
			len(matching), len(jobSkills),
		),
		FallbackUsed: true,
	}
}

// MatchPercentage is floor(100*matching/total) clamped to [0,100]; zero
// total yields 0.
func MatchPercentage(matching, total int) int {
	if total <= 0 || matching <= 0 {
		return 0
	}
	pct := 100 * matching / total
	if pct > 100 {
		return 100
	}
	return pct
}

// Equivalent reports whether two skill phrases name the same skill: equal
// ignoring case, one containing the other, or sharing a significant token.
func Equivalent(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}

	if la == lb {
		return true
	}

	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}

	tokens := significantTokens(la)
	for _, token := range strings.FieldsFunc(lb, isTokenSeparator) {
		if len([]rune(token)) <= minSignificantTokenLen {
			continue
		}
		if _, ok := tokens[token]; ok {
			return true
		}
	}

	return false
}

func significantTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.FieldsFunc(s, isTokenSeparator) {
		if len([]rune(token)) > minSignificantTokenLen {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

func isTokenSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
}

// dedupe drops exact repeats, keeping first occurrences.
func dedupe(values []string) models.SkillSet {
	out := make(models.SkillSet, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nonNil(values []string) models.SkillSet {
	if values == nil {
		return models.SkillSet{}
	}
	return models.SkillSet(values)
}
