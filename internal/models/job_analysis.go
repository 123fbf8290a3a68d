package models

// JobAnalysis is the structured breakdown of a job posting.
type JobAnalysis struct {
	TechnicalSkills         []string `json:"technical_skills"`
	SoftSkills              []string `json:"soft_skills"`
	ExperienceYears         string   `json:"experience_years"`
	SpecificExperience      []string `json:"specific_experience"`
	EducationRequired       bool     `json:"education_required"`
	EducationDetails        string   `json:"education_details"`
	Certifications          []string `json:"certifications"`
	JobLevel                string   `json:"job_level"`
	Industry                string   `json:"industry"`
	RequiredQualifications  []string `json:"required_qualifications"`
	PreferredQualifications []string `json:"preferred_qualifications"`
	CompanyCulture          string   `json:"company_culture"`
	AllSkills               []string `json:"all_skills"`
}
