package model

import (
	"encoding/json"
	"time"
)

// AnalysisKind distinguishes the two screening flows.
type AnalysisKind string

const (
	KindJobPosting AnalysisKind = "job_posting"
	KindResume     AnalysisKind = "resume"
)

// Verdict is the graded authenticity call shown to users. Low-trust
// extraction provenance demotes a verdict to uncertain regardless of what
// the model claimed.
type Verdict string

const (
	VerdictAuthentic  Verdict = "authentic"
	VerdictSuspicious Verdict = "suspicious"
	VerdictUncertain  Verdict = "uncertain"
)

// ExtractedData holds company facts pulled from a posting. Empty string
// means the model could not determine the value.
type ExtractedData struct {
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// AuthenticityReport is the typed result of screening one job posting.
type AuthenticityReport struct {
	IsAuthentic     bool          `json:"is_authentic"`
	Verdict         Verdict       `json:"verdict"`
	ConfidenceScore float64       `json:"confidence_score"`
	Evidence        string        `json:"evidence"`
	ExtractedData   ExtractedData `json:"extracted_data"`
	Provenance      string        `json:"provenance"`
	Warnings        []string      `json:"warnings,omitempty"`
}

// ResumeCritique is the typed result of critiquing one résumé against a
// job description.
type ResumeCritique struct {
	MatchScore float64  `json:"match_score"`
	Tips       string   `json:"tips"`
	Provenance string   `json:"provenance"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Analysis is one persisted screening run of either kind. Report holds the
// marshaled AuthenticityReport or ResumeCritique.
type Analysis struct {
	ID         string          `json:"id"`
	Kind       AnalysisKind    `json:"kind"`
	Input      string          `json:"input"` // URL, file name, or "inline text"
	Provenance string          `json:"provenance"`
	Credits    int             `json:"credits"`
	Report     json.RawMessage `json:"report"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuthenticityReport unmarshals the stored report for job-posting analyses.
func (a *Analysis) AuthenticityReport() (*AuthenticityReport, error) {
	var r AuthenticityReport
	if err := json.Unmarshal(a.Report, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ResumeCritique unmarshals the stored report for résumé analyses.
func (a *Analysis) ResumeCritique() (*ResumeCritique, error) {
	var r ResumeCritique
	if err := json.Unmarshal(a.Report, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Bookmark is a saved job posting backed by an authenticity analysis.
type Bookmark struct {
	ID         string    `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	URL        string    `json:"url"`
	Company    string    `json:"company,omitempty"`
	Location   string    `json:"location,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreditEntry is one row in the credit ledger. Grants are positive deltas,
// charges negative.
type CreditEntry struct {
	ID         string    `json:"id"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
