package services

import (
	"context"
	"strings"
	"sync"
)

// scriptedProvider answers each prompt by its leading instruction so one stub
// can drive a whole pipeline run.
type scriptedProvider struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	prompts   []string
	onCall    func(stage string)
}

const (
	promptSkillMatch  = "Extract and compare skills"
	promptExtraction  = "Extract skills from this"
	promptEvaluation  = "You are an expert recruiter"
	promptRating      = "Based on the evaluation report"
	promptJobAnalysis = "Analyze this job description"
	promptResume      = "Analyze this resume"
	promptComparison  = "Compare this resume analysis"
	promptQuickRating = "Give a quick rating"
)

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (s *scriptedProvider) on(prefix, response string) *scriptedProvider {
	s.responses[prefix] = response
	return s
}

func (s *scriptedProvider) fail(prefix string, err error) *scriptedProvider {
	s.errs[prefix] = err
	return s
}

func (s *scriptedProvider) Complete(_ context.Context, prompt string, _ GenerationConfig) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.onCall != nil {
		s.onCall(promptPrefix(prompt))
	}
	if key := longestPrefix(prompt, s.errs); key != "" {
		return "", s.errs[key]
	}
	return s.responses[longestPrefix(prompt, s.responses)], nil
}

func longestPrefix[V any](prompt string, m map[string]V) string {
	best := ""
	for key := range m {
		if strings.HasPrefix(prompt, key) && len(key) > len(best) {
			best = key
		}
	}
	return best
}

func (s *scriptedProvider) Name() string {
	return "scripted"
}

func (s *scriptedProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *scriptedProvider) promptFor(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prompts {
		if strings.HasPrefix(p, prefix) {
			return p
		}
	}
	return ""
}

func promptPrefix(prompt string) string {
	for _, prefix := range []string{promptSkillMatch, promptExtraction, promptEvaluation, promptRating, promptJobAnalysis, promptResume, promptComparison, promptQuickRating} {
		if strings.HasPrefix(prompt, prefix) {
			return prefix
		}
	}
	return ""
}
