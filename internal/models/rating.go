package models

import (
	"encoding/json"
	"strings"
)

const MaxPriorityRecommendations = 5

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority maps any casing of high/medium/low onto the enum; anything
// else becomes Medium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "high priority", "critical":
		return PriorityHigh
	case "low", "low priority":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*p = PriorityMedium
		return nil
	}
	*p = ParsePriority(s)
	return nil
}

// CategoryRating is one entry of detailed_ratings. The list fields are
// category specific and mostly empty.
type CategoryRating struct {
	Score            Score    `json:"score"`
	Justification    string   `json:"justification"`
	WeakPhrases      []string `json:"weak_phrases,omitempty"`
	MissingMetrics   []string `json:"missing_metrics,omitempty"`
	VagueTerms       []string `json:"vague_terms,omitempty"`
	MissingKeywords  []string `json:"missing_keywords,omitempty"`
	FormattingIssues []string `json:"formatting_issues,omitempty"`
	SectionProblems  []string `json:"section_problems,omitempty"`
	MatchingSkills   []string `json:"matching_skills,omitempty"`
	MissingSkills    []string `json:"missing_skills,omitempty"`
	ExperienceGaps   []string `json:"experience_gaps,omitempty"`
	WeakDescriptions []string `json:"weak_descriptions,omitempty"`
	MatchPercentage  *Score   `json:"match_percentage,omitempty"`
}

type ParaphrasingSuggestion struct {
	CurrentText             string `json:"current_text"`
	SuggestedText           string `json:"suggested_text"`
	JobRequirementReference string `json:"job_requirement_reference"`
	AlignmentReason         string `json:"alignment_reason"`
}

type Recommendation struct {
	Priority               Priority                `json:"priority"`
	Title                  string                  `json:"title"`
	Description            string                  `json:"description"`
	SpecificExample        string                  `json:"specific_example"`
	ParaphrasingSuggestion *ParaphrasingSuggestion `json:"paraphrasing_suggestion,omitempty"`

	// Set when the quoted current_text is not a verbatim part of the resume.
	ValidationMismatch bool   `json:"validation_mismatch"`
	ValidationNote     string `json:"validation_note,omitempty"`
}

type ExperienceEntry struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	Dates        string   `json:"dates,omitempty"`
	Achievements []string `json:"achievements"`
}

type ImprovedResume struct {
	ContactInfo         string              `json:"contact_info,omitempty"`
	ProfessionalSummary string              `json:"professional_summary,omitempty"`
	WorkExperience      []ExperienceEntry   `json:"work_experience,omitempty"`
	Education           []string            `json:"education,omitempty"`
	Skills              []string            `json:"skills,omitempty"`
	Certifications      []string            `json:"certifications,omitempty"`
	Projects            []string            `json:"projects,omitempty"`
	AdditionalSections  map[string][]string `json:"additional_sections,omitempty"`
}

// RatingResult is the structured output of the rating stage. ImprovedResume
// is nil when the stage was configured not to regenerate the resume.
type RatingResult struct {
	DetailedRatings         map[string]CategoryRating `json:"detailed_ratings"`
	PriorityRecommendations []Recommendation          `json:"priority_recommendations"`
	ImprovedResume          *ImprovedResume           `json:"improved_resume,omitempty"`
}

func (r *RatingResult) Normalize() {
	for name, rating := range r.DetailedRatings {
		rating.Score = rating.Score.Clamp(1, 10)
		r.DetailedRatings[name] = rating
	}
	if len(r.PriorityRecommendations) > MaxPriorityRecommendations {
		r.PriorityRecommendations = r.PriorityRecommendations[:MaxPriorityRecommendations]
	}
	for i := range r.PriorityRecommendations {
		if r.PriorityRecommendations[i].Priority == "" {
			r.PriorityRecommendations[i].Priority = PriorityMedium
		}
	}
}
