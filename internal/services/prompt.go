package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/resume-evaluator/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSkillMatchPrompt asks for both skill sets and their overlap in one JSON answer.
func (pb *PromptBuilder) BuildSkillMatchPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`Extract and compare skills from these two texts.

RESUME:
%s

JOB DESCRIPTION:
%s

Return ONLY a JSON object, no markdown and no explanations, in this format:
{
  "resume_skills": ["skill1", "skill2"],
  "job_skills": ["skill1", "skill2"],
  "matching_skills": ["skill1"],
  "missing_skills": ["skill2"],
  "match_percentage": <integer 0-100>,
  "summary": "<brief analysis>"
}

Rules:
- Extract technical skills, tools, frameworks and relevant soft skills.
- matching_skills uses the resume's wording for every job skill the resume covers.
- missing_skills lists the job skills the resume does not cover, using the job's wording.`,
		resumeText, jobDescription)
}

// BuildSkillExtractionPrompt asks for a plain comma-separated skill list.
func (pb *PromptBuilder) BuildSkillExtractionPrompt(text, contextLabel string) string {
	return fmt.Sprintf(`Extract skills from this %s:

%s

Return only a comma-separated list of skills (no explanations):
Example: python, javascript, aws, docker, project management`,
		contextLabel, text)
}

// BuildEvaluationPrompt embeds both documents, the computed skill match and,
// when available, retrieved resume-writing guidance.
func (pb *PromptBuilder) BuildEvaluationPrompt(resumeText, jobDescription, skillMatchJSON, guidance string) string {
	var guidanceSection string
	if strings.TrimSpace(guidance) != "" {
		guidanceSection = fmt.Sprintf(`
RESUME WRITING GUIDELINES (reference material):
%s
`, guidance)
	}

	return fmt.Sprintf(`You are an expert recruiter and ATS specialist. Analyze this resume for the job description provided.

RESUME:
%s

JOB DESCRIPTION:
%s

SKILLS ANALYSIS DATA (computed, use it as ground truth):
%s
%s
Use the skills analysis data to ground your evaluation:
- Reference the match_percentage when judging job fit.
- Treat matching_skills as strengths and missing_skills as gaps.
- Do not contradict the computed matching_skills and missing_skills.

Return ONLY a JSON object, no prose and no markdown, in this format:
{
  "executive_summary": "<3-5 sentences on overall suitability>",
  "overall_score": <number 1-10>,
  "job_match_percentage": <number 0-100>,
  "section_analysis": {
    "<section name, e.g. summary, experience, skills, education>": {
      "score": <number 1-10>,
      "feedback": "<specific feedback>"
    }
  },
  "strengths": ["<strength>"],
  "weaknesses": ["<weakness>"],
  "missing_skills": ["<skill>"],
  "matching_skills": ["<skill>"],
  "ats_compatibility": {
    "score": <number 1-10>,
    "issues": ["<issue>"],
    "recommendations": ["<recommendation>"]
  }
}

Be thorough and specific. Cite concrete evidence from the resume.`,
		resumeText, jobDescription, skillMatchJSON, guidanceSection)
}

// BuildRatingPrompt chains the evaluation into the rating stage. evaluation
// is either the serialized structured evaluation or its raw-text fallback.
func (pb *PromptBuilder) BuildRatingPrompt(evaluation, skillMatchJSON, resumeText, jobDescription string, includeImprovedResume bool) string {
	improvedSchema := ""
	improvedTask := "3. Do NOT generate an improved resume; omit the improved_resume field."
	if includeImprovedResume {
		improvedSchema = `,
  "improved_resume": {
    "contact_info": "<contact line>",
    "professional_summary": "<rewritten summary>",
    "work_experience": [
      {"title": "", "company": "", "location": "", "dates": "", "achievements": ["<bullet>"]}
    ],
    "education": ["<entry>"],
    "skills": ["<skill>"],
    "certifications": ["<certification>"],
    "projects": ["<project>"],
    "additional_sections": {"<section name>": ["<entry>"]}
  }`
		improvedTask = "3. A complete improved resume mirroring the original sections and addressing the evaluation findings."
	}

	return fmt.Sprintf(`Based on the evaluation report below, rate the resume and give precise improvement recommendations.

EVALUATION REPORT (primary source):
%s

SKILLS ANALYSIS DATA (supporting evidence):
%s

ORIGINAL RESUME:
%s

JOB DESCRIPTION:
%s

Base your ratings on the evaluation report findings and use the skills analysis for quantified insights.

Provide:
1. Detailed ratings (1-10) with specific justifications for content_quality, ats_compatibility, skills_match and experience_relevance.
2. At most 5 priority recommendations (priority High, Medium or Low) with specific examples.
%s

CRITICAL: every paraphrasing_suggestion.current_text MUST be copied character-for-character from the ORIGINAL RESUME above. Do not paraphrase, shorten, fix typos or change punctuation in current_text. If no exact text applies, omit paraphrasing_suggestion.

Return ONLY a JSON object, no prose and no markdown, in this format:
{
  "detailed_ratings": {
    "content_quality": {"score": <1-10>, "justification": "", "weak_phrases": [], "missing_metrics": [], "vague_terms": []},
    "ats_compatibility": {"score": <1-10>, "justification": "", "missing_keywords": [], "formatting_issues": [], "section_problems": []},
    "skills_match": {"score": <1-10>, "justification": "", "match_percentage": <0-100>, "matching_skills": [], "missing_skills": []},
    "experience_relevance": {"score": <1-10>, "justification": "", "experience_gaps": [], "weak_descriptions": []}
  },
  "priority_recommendations": [
    {
      "priority": "High",
      "title": "",
      "description": "",
      "specific_example": "",
      "paraphrasing_suggestion": {
        "current_text": "<exact text from the original resume>",
        "suggested_text": "",
        "job_requirement_reference": "",
        "alignment_reason": ""
      }
    }
  ]%s
}`,
		evaluation, skillMatchJSON, resumeText, jobDescription, improvedTask, improvedSchema)
}

func (pb *PromptBuilder) BuildJobAnalysisPrompt(jobDescription string) string {
	return fmt.Sprintf(`Analyze this job description and extract its requirements.

JOB DESCRIPTION:
%s

Extract and categorize:
1. Technical skills (languages, frameworks, tools). Include variations such as React, React.js, ReactJS.
2. Soft skills.
3. Experience requirements: years required and specific experience types.
4. Education requirements and certifications.
5. Job level (entry, mid, senior, lead, principal, executive).
6. Industry or domain.
7. Required versus preferred qualifications, kept separate.
8. Company culture indicators.

Return ONLY a JSON object in this format:
{
  "technical_skills": ["skill"],
  "soft_skills": ["skill"],
  "experience_years": "X+ years, X-Y years or Not specified",
  "specific_experience": ["experience"],
  "education_required": true,
  "education_details": "",
  "certifications": ["certification"],
  "job_level": "entry/mid/senior/lead/principal/executive",
  "industry": "",
  "required_qualifications": ["requirement"],
  "preferred_qualifications": ["preference"],
  "company_culture": "",
  "all_skills": ["combined list of all skills"]
}`,
		jobDescription)
}

// BuildRetrievalQuery creates the query embedded for guideline retrieval.
func (pb *PromptBuilder) BuildRetrievalQuery(jobDescription string) string {
	return fmt.Sprintf("Resume writing and ATS guidelines for this role: %s", jobDescription)
}

// FormatRAGContext renders retrieved chunks for prompt injection.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Guideline %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}

func (pb *PromptBuilder) BuildResumeAnalysisPrompt(resumeText string) string {
	return fmt.Sprintf(`Analyze this resume and describe what it contains.

RESUME CONTENT:
%s

Provide a structured analysis with:
1. Contact information (name, email, phone, location)
2. Professional summary or objective
3. Work experience (companies, positions, dates, responsibilities)
4. Education (degrees, institutions, dates)
5. Skills (technical and soft)
6. Certifications and awards
7. Projects, if any
8. Formatting and ATS compatibility

Then highlight:
- Key strengths
- Areas for improvement
- Commonly expected sections that are missing
- ATS optimization suggestions

Format the response as a detailed analysis with clear sections.`,
		resumeText)
}

// BuildComparisonPrompt compares a stored resume analysis with a job. When the
// job analysis fell back to raw text, the requirement lines are omitted.
func (pb *PromptBuilder) BuildComparisonPrompt(resumeAnalysis string, job models.StageOutput[models.JobAnalysis], jobDescription string) string {
	requirements := "Not extracted"
	if a := job.Structured; a != nil {
		education := "Not specified"
		if a.EducationRequired {
			education = "Required"
		}
		requirements = fmt.Sprintf("Required Skills: %s\nExperience: %s\nEducation: %s\nJob Level: %s",
			strings.Join(a.AllSkills, ", "), a.ExperienceYears, education, a.JobLevel)
	}

	return fmt.Sprintf(`Compare this resume analysis with the job requirements and give optimization suggestions.

RESUME ANALYSIS:
%s

JOB REQUIREMENTS:
%s

JOB DESCRIPTION:
%s

Provide:
1. Match score (0-100%%): how well the resume matches the requirements
2. Strengths: what aligns well with the job
3. Gaps: what the job requires that the resume lacks
4. Specific recommendations for improving the resume
5. ATS optimization tips
6. Keywords to add
7. Brief insights about this role and industry

Be specific and actionable.`,
		resumeAnalysis, requirements, jobDescription)
}

func (pb *PromptBuilder) BuildQuickRatingPrompt(resumeAnalysis string) string {
	return fmt.Sprintf(`Give a quick rating of this resume.

RESUME ANALYSIS:
%s

Provide:
1. Overall score (1-10)
2. Key strengths (top 3)
3. Key weaknesses (top 3)
4. Quick recommendations (top 3)
5. Market readiness assessment

Keep the response concise but informative.`,
		resumeAnalysis)
}
