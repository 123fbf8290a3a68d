package models

type SectionFeedback struct {
	Score    Score  `json:"score"`
	Feedback string `json:"feedback"`
}

type ATSCompatibility struct {
	Score           Score    `json:"score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// EvaluationResult is the structured output of the evaluation stage.
type EvaluationResult struct {
	ExecutiveSummary   string                     `json:"executive_summary"`
	OverallScore       Score                      `json:"overall_score"`
	JobMatchPercentage *Score                     `json:"job_match_percentage,omitempty"`
	SectionAnalysis    map[string]SectionFeedback `json:"section_analysis"`
	Strengths          []string                   `json:"strengths"`
	Weaknesses         []string                   `json:"weaknesses"`
	MissingSkills      []string                   `json:"missing_skills"`
	MatchingSkills     []string                   `json:"matching_skills"`
	ATSCompatibility   ATSCompatibility           `json:"ats_compatibility"`
}

// Normalize clamps every present score into its declared range.
func (e *EvaluationResult) Normalize() {
	e.OverallScore = e.OverallScore.Clamp(1, 10)
	if e.JobMatchPercentage != nil {
		clamped := e.JobMatchPercentage.Clamp(0, 100)
		e.JobMatchPercentage = &clamped
	}
	for name, section := range e.SectionAnalysis {
		section.Score = section.Score.Clamp(1, 10)
		e.SectionAnalysis[name] = section
	}
	e.ATSCompatibility.Score = e.ATSCompatibility.Score.Clamp(1, 10)
}
