package analyzer

import "fmt"

// The prompts demand strict JSON, but model output is never trusted to
// comply; the extraction pipeline handles every degradation.

const authenticitySystem = `You are an expert at detecting fraudulent job postings. You analyze job
postings for signs of scams: vague descriptions, unrealistic pay, requests
for personal information, unverifiable companies, and pressure tactics.
Respond ONLY with a JSON object, no prose before or after, in exactly this
shape:
{
  "is_authentic": <boolean>,
  "confidence_score": <number 0-100>,
  "evidence": "<short explanation of your reasoning>",
  "extracted_data": {
    "company": "<company name or null>",
    "location": "<location or null>",
    "industry": "<industry or null>"
  }
}`

const critiqueSystem = `You are an experienced recruiter reviewing a resume against a job
description. Score how well the resume matches and give concrete,
actionable improvement tips. Respond ONLY with a JSON object, no prose
before or after, in exactly this shape:
{
  "match_score": <number 0-100>,
  "tips": "<numbered list of specific improvements as a single string>"
}`

func authenticityPrompt(description string) string {
	return fmt.Sprintf("Analyze this job posting for authenticity:\n\n%s", description)
}

func critiquePrompt(resume, jobDescription string) string {
	return fmt.Sprintf(
		"Review this resume against the job description.\n\nRESUME:\n%s\n\nJOB DESCRIPTION:\n%s",
		resume, jobDescription,
	)
}
