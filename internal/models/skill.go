package models

import "encoding/json"

// SkillSet is an ordered list of skill phrases taken from one document.
// Case-insensitive duplicates are kept; equivalence is decided at match time.
type SkillSet []string

func (s SkillSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

type SkillMatchResult struct {
	ResumeSkills    SkillSet `json:"resume_skills"`
	JobSkills       SkillSet `json:"job_skills"`
	MatchingSkills  SkillSet `json:"matching_skills"`
	MissingSkills   SkillSet `json:"missing_skills"`
	MatchPercentage int      `json:"match_percentage"`
	Summary         string   `json:"summary"`
	FallbackUsed    bool     `json:"fallback_used"`
}
