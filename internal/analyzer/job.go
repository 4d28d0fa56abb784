// Package analyzer turns raw model output into typed screening reports via
// the extraction pipeline. It never fails on malformed model output; the
// worst case is a fallback report flagged as uncertain.
package analyzer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ruvia-hq/ruvia-cli/internal/extract"
	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/internal/scrape"
	"github.com/ruvia-hq/ruvia-cli/pkg/anthropic"
	"github.com/ruvia-hq/ruvia-cli/pkg/safebrowsing"
)

// PostingFetcher retrieves a job posting as plaintext.
type PostingFetcher interface {
	Fetch(ctx context.Context, url string) (*scrape.Posting, error)
}

// URLChecker screens a posting URL's reputation before tokens are spent
// on it.
type URLChecker interface {
	CheckURL(ctx context.Context, url string) (*safebrowsing.Result, error)
}

// JobAnalyzer screens job postings for authenticity.
type JobAnalyzer struct {
	client    anthropic.Client
	fetcher   PostingFetcher
	checker   URLChecker
	model     string
	maxTokens int64
}

// NewJobAnalyzer creates a JobAnalyzer. fetcher may be nil if AnalyzeURL is
// never used.
func NewJobAnalyzer(client anthropic.Client, fetcher PostingFetcher, modelID string, maxTokens int64) *JobAnalyzer {
	return &JobAnalyzer{
		client:    client,
		fetcher:   fetcher,
		model:     modelID,
		maxTokens: maxTokens,
	}
}

// WithURLChecker enables URL reputation screening on AnalyzeURL. A nil
// checker leaves it off.
func (j *JobAnalyzer) WithURLChecker(c URLChecker) *JobAnalyzer {
	j.checker = c
	return j
}

// AnalyzeText screens a job posting given as plain text.
func (j *JobAnalyzer) AnalyzeText(ctx context.Context, description string) (*model.AuthenticityReport, error) {
	if description == "" {
		return nil, eris.New("analyzer: empty job description")
	}

	resp, err := j.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     j.model,
		MaxTokens: j.maxTokens,
		System:    authenticitySystem,
		Messages:  []anthropic.Message{{Role: "user", Content: authenticityPrompt(description)}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: authenticity call")
	}
	resp.Usage.LogCost(j.model, "authenticity")

	outcome := extract.Extract(resp.Text(), extract.Authenticity)
	zap.L().Debug("analyzer: extracted authenticity outcome", outcome.LogFields()...)

	report := outcomeToReport(&outcome)
	return report, nil
}

// AnalyzeURL fetches a posting and screens it. When a URL checker is
// configured, a flagged URL short-circuits to a suspicious verdict without
// fetching the page or calling the model; lookup failures never block the
// analysis.
func (j *JobAnalyzer) AnalyzeURL(ctx context.Context, url string) (*model.AuthenticityReport, error) {
	if j.fetcher == nil {
		return nil, eris.New("analyzer: no fetcher configured")
	}

	if j.checker != nil {
		res, err := j.checker.CheckURL(ctx, url)
		switch {
		case err != nil:
			zap.L().Warn("analyzer: url reputation check failed",
				zap.String("url", url), zap.Error(err))
		case !res.Safe:
			zap.L().Info("analyzer: url flagged by safe browsing",
				zap.String("url", url), zap.Strings("threats", res.Threats))
			return flaggedURLReport(res.Threats), nil
		}
	}

	posting, err := j.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return j.AnalyzeText(ctx, posting.Text)
}

// flaggedURLReport builds the verdict for a URL on Google's threat lists.
// The listing itself is the evidence; no model call is needed.
func flaggedURLReport(threats []string) *model.AuthenticityReport {
	return &model.AuthenticityReport{
		IsAuthentic:     false,
		Verdict:         model.VerdictSuspicious,
		ConfidenceScore: 95,
		Evidence:        "URL flagged by Google Safe Browsing: " + strings.Join(threats, ", "),
		Provenance:      extract.TierExact.String(),
	}
}

// outcomeToReport maps an extraction outcome to the typed report. A
// low-trust provenance demotes the verdict to uncertain no matter what the
// model claimed; a defaulted confidence score is not a real confidence.
func outcomeToReport(o *extract.Outcome) *model.AuthenticityReport {
	data := o.Object("extracted_data")

	report := &model.AuthenticityReport{
		IsAuthentic:     o.Bool("is_authentic"),
		ConfidenceScore: o.Number("confidence_score"),
		Evidence:        o.Text("evidence"),
		ExtractedData: model.ExtractedData{
			Company:  data["company"],
			Location: data["location"],
			Industry: data["industry"],
		},
		Provenance: o.Provenance.String(),
		Warnings:   o.Warnings,
	}

	switch o.Provenance {
	case extract.TierExact, extract.TierSubstring:
		if report.IsAuthentic {
			report.Verdict = model.VerdictAuthentic
		} else {
			report.Verdict = model.VerdictSuspicious
		}
	default:
		report.Verdict = model.VerdictUncertain
	}
	return report
}
