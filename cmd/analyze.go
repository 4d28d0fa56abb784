package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ruvia-hq/ruvia-cli/internal/extract"
	"github.com/ruvia-hq/ruvia-cli/internal/model"
)

var (
	analyzeText     string
	analyzeBookmark bool
	analyzeNote     string
)

const analyzeConcurrency = 3

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url...]",
	Short: "Screen job postings for authenticity",
	Long:  "Screens one or more job postings. Pass posting URLs as arguments, or --text for an inline description. Each completed analysis costs one credit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeText == "" && len(args) == 0 {
			return eris.New("nothing to analyze: pass posting URLs or --text")
		}
		if analyzeText != "" && len(args) > 0 {
			return eris.New("--text cannot be combined with URL arguments")
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if analyzeText != "" {
			return analyzeOne(ctx, env, "", analyzeText)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(analyzeConcurrency)

		for _, url := range args {
			g.Go(func() error {
				return analyzeOne(gctx, env, url, "")
			})
		}
		return g.Wait()
	},
}

// printMu keeps concurrent report output from interleaving.
var printMu sync.Mutex

func analyzeOne(ctx context.Context, env *appEnv, url, text string) error {
	if err := env.Ledger.Reserve(ctx); err != nil {
		return err
	}

	var (
		report *model.AuthenticityReport
		input  string
		err    error
	)
	if url != "" {
		input = url
		report, err = env.Jobs.AnalyzeURL(ctx, url)
	} else {
		input = "inline text"
		report, err = env.Jobs.AnalyzeText(ctx, text)
	}
	if err != nil {
		return err
	}

	analysis, err := persistAnalysis(ctx, env, model.KindJobPosting, input, report.Provenance, report)
	if err != nil {
		return err
	}

	if analyzeBookmark && url != "" && report.Verdict == model.VerdictAuthentic {
		bookmark := &model.Bookmark{
			AnalysisID: analysis.ID,
			URL:        url,
			Company:    report.ExtractedData.Company,
			Location:   report.ExtractedData.Location,
			Note:       analyzeNote,
		}
		if err := env.Store.CreateBookmark(ctx, bookmark); err != nil {
			return err
		}
		zap.L().Info("bookmarked posting", zap.String("url", url), zap.String("bookmark_id", bookmark.ID))
	}

	printMu.Lock()
	defer printMu.Unlock()
	printAuthenticityReport(input, report)
	return nil
}

// persistAnalysis charges a credit and saves the analysis. Fallback
// provenance is not charged: the model output was unusable, so the user
// should not pay for it. The charge lands first so a refused charge never
// leaves a paid-looking analysis row behind.
func persistAnalysis(ctx context.Context, env *appEnv, kind model.AnalysisKind, input, provenance string, report any) (*model.Analysis, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, eris.Wrap(err, "marshal report")
	}

	charged := 0
	if extract.ParseTier(provenance) != extract.TierFallback {
		charged = 1
	}

	analysis := &model.Analysis{
		ID:         uuid.New().String(),
		Kind:       kind,
		Input:      input,
		Provenance: provenance,
		Credits:    charged,
		Report:     raw,
	}
	if charged > 0 {
		if err := env.Ledger.Charge(ctx, analysis.ID); err != nil {
			return nil, err
		}
	}
	if err := env.Store.SaveAnalysis(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

func printAuthenticityReport(input string, r *model.AuthenticityReport) {
	fmt.Printf("\n%s\n", input)
	fmt.Printf("  verdict:    %s (confidence %.0f/100)\n", r.Verdict, r.ConfidenceScore)
	fmt.Printf("  evidence:   %s\n", r.Evidence)
	if r.ExtractedData.Company != "" {
		fmt.Printf("  company:    %s\n", r.ExtractedData.Company)
	}
	if r.ExtractedData.Location != "" {
		fmt.Printf("  location:   %s\n", r.ExtractedData.Location)
	}
	if r.ExtractedData.Industry != "" {
		fmt.Printf("  industry:   %s\n", r.ExtractedData.Industry)
	}
	fmt.Printf("  provenance: %s\n", r.Provenance)
	for _, w := range r.Warnings {
		fmt.Printf("  warning:    %s\n", w)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "analyze an inline job description instead of URLs")
	analyzeCmd.Flags().BoolVar(&analyzeBookmark, "bookmark", false, "bookmark postings with an authentic verdict")
	analyzeCmd.Flags().StringVar(&analyzeNote, "note", "", "note to attach to created bookmarks")
	rootCmd.AddCommand(analyzeCmd)
}
