package analyzer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ruvia-hq/ruvia-cli/internal/extract"
	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/pkg/anthropic"
)

// TextExtractor converts a resume file to plaintext.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ResumeAnalyzer critiques resumes against job descriptions.
type ResumeAnalyzer struct {
	client    anthropic.Client
	doctext   TextExtractor
	model     string
	maxTokens int64
}

// NewResumeAnalyzer creates a ResumeAnalyzer.
func NewResumeAnalyzer(client anthropic.Client, doctext TextExtractor, modelID string, maxTokens int64) *ResumeAnalyzer {
	return &ResumeAnalyzer{
		client:    client,
		doctext:   doctext,
		model:     modelID,
		maxTokens: maxTokens,
	}
}

// Critique reads the resume at resumePath and scores it against the job
// description.
func (r *ResumeAnalyzer) Critique(ctx context.Context, resumePath, jobDescription string) (*model.ResumeCritique, error) {
	resume, err := r.doctext.Extract(ctx, resumePath)
	if err != nil {
		return nil, err
	}
	return r.CritiqueText(ctx, resume, jobDescription)
}

// CritiqueText scores resume text against the job description. Used by the
// API server, which receives both as payloads.
func (r *ResumeAnalyzer) CritiqueText(ctx context.Context, resume, jobDescription string) (*model.ResumeCritique, error) {
	if jobDescription == "" {
		return nil, eris.New("analyzer: empty job description")
	}
	if resume == "" {
		return nil, eris.New("analyzer: empty resume")
	}

	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		System:    critiqueSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: critiquePrompt(resume, jobDescription)}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: critique call")
	}
	resp.Usage.LogCost(r.model, "critique")

	outcome := extract.Extract(resp.Text(), extract.Critique)
	zap.L().Debug("analyzer: extracted critique outcome", outcome.LogFields()...)

	critique := &model.ResumeCritique{
		MatchScore: outcome.Number("match_score"),
		Tips:       outcome.Text("tips"),
		Provenance: outcome.Provenance.String(),
		Warnings:   outcome.Warnings,
	}
	return critique, nil
}
