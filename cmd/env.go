package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ruvia-hq/ruvia-cli/internal/analyzer"
	"github.com/ruvia-hq/ruvia-cli/internal/credits"
	"github.com/ruvia-hq/ruvia-cli/internal/doctext"
	"github.com/ruvia-hq/ruvia-cli/internal/scrape"
	"github.com/ruvia-hq/ruvia-cli/internal/store"
	"github.com/ruvia-hq/ruvia-cli/pkg/anthropic"
	"github.com/ruvia-hq/ruvia-cli/pkg/safebrowsing"
)

// appEnv wires the store, ledger, and analyzers for a command invocation.
type appEnv struct {
	Store   store.Store
	Ledger  *credits.Ledger
	Jobs    *analyzer.JobAnalyzer
	Resumes *analyzer.ResumeAnalyzer
	Fetcher *scrape.Fetcher
	Doctext *doctext.Extractor
}

// dataEnv holds the store and ledger, enough for commands that never call
// the API.
type dataEnv struct {
	Store  store.Store
	Ledger *credits.Ledger
}

func initData(ctx context.Context) (*dataEnv, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	ledger, err := credits.NewLedger(ctx, st, cfg.Credits.InitialGrant)
	if err != nil {
		st.Close()
		return nil, eris.Wrap(err, "init credit ledger")
	}
	return &dataEnv{Store: st, Ledger: ledger}, nil
}

func (e *dataEnv) Close() {
	_ = e.Store.Close()
}

func initEnv(ctx context.Context) (*appEnv, error) {
	data, err := initData(ctx)
	if err != nil {
		return nil, err
	}
	st, ledger := data.Store, data.Ledger

	if cfg.Anthropic.Key == "" {
		st.Close()
		return nil, eris.New("anthropic API key not set (RUVIA_ANTHROPIC_KEY or config.yaml)")
	}
	client := anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.RPM)

	fetcher := scrape.NewFetcher(
		time.Duration(cfg.Scrape.TimeoutSecs)*time.Second,
		cfg.Scrape.MaxBytes,
		cfg.Scrape.Retries,
	)
	extractor := doctext.NewExtractor(cfg.Doctext.PdfToTextPath, cfg.Doctext.MaxPages, cfg.Doctext.MaxChars)

	jobs := analyzer.NewJobAnalyzer(client, fetcher, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	if cfg.SafeBrowsing.Key != "" {
		jobs = jobs.WithURLChecker(safebrowsing.NewClient(cfg.SafeBrowsing.Key))
	}

	return &appEnv{
		Store:   st,
		Ledger:  ledger,
		Jobs:    jobs,
		Resumes: analyzer.NewResumeAnalyzer(client, extractor, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
		Fetcher: fetcher,
		Doctext: extractor,
	}, nil
}

func (e *appEnv) Close() {
	_ = e.Store.Close()
}
