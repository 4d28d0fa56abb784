package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisReportRoundTrip(t *testing.T) {
	report := AuthenticityReport{
		IsAuthentic:     true,
		Verdict:         VerdictAuthentic,
		ConfidenceScore: 87,
		Evidence:        "Careers page and posting agree",
		ExtractedData:   ExtractedData{Company: "Acme", Location: "Austin, TX"},
		Provenance:      "exact",
	}
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	a := Analysis{ID: "a1", Kind: KindJobPosting, Report: raw}
	got, err := a.AuthenticityReport()
	require.NoError(t, err)
	assert.Equal(t, report, *got)
}

func TestAnalysisCritiqueRoundTrip(t *testing.T) {
	critique := ResumeCritique{
		MatchScore: 72,
		Tips:       "Quantify outcomes in the first three bullets.",
		Provenance: "manual",
		Warnings:   []string{"fell back to regex for match_score"},
	}
	raw, err := json.Marshal(critique)
	require.NoError(t, err)

	a := Analysis{ID: "a2", Kind: KindResume, Report: raw}
	got, err := a.ResumeCritique()
	require.NoError(t, err)
	assert.Equal(t, critique, *got)
}

func TestAnalysisReportInvalidJSON(t *testing.T) {
	a := Analysis{Report: json.RawMessage(`{`)}
	_, err := a.AuthenticityReport()
	assert.Error(t, err)
}
