package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/internal/store"
)

var (
	historyKind  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initData(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		analyses, err := env.Store.ListAnalyses(ctx, store.AnalysisFilter{
			Kind:  model.AnalysisKind(historyKind),
			Limit: historyLimit,
		})
		if err != nil {
			return err
		}
		if len(analyses) == 0 {
			fmt.Println("no analyses yet")
			return nil
		}

		for _, a := range analyses {
			fmt.Printf("%s  %-11s %-10s %s\n",
				a.CreatedAt.Format("2006-01-02 15:04"), a.Kind, a.Provenance, summaryLine(&a))
			fmt.Printf("  id: %s  input: %s\n", a.ID, a.Input)
		}
		return nil
	},
}

func summaryLine(a *model.Analysis) string {
	switch a.Kind {
	case model.KindJobPosting:
		report, err := a.AuthenticityReport()
		if err != nil {
			return "(unreadable report)"
		}
		return fmt.Sprintf("%s %.0f/100", report.Verdict, report.ConfidenceScore)
	case model.KindResume:
		critique, err := a.ResumeCritique()
		if err != nil {
			return "(unreadable report)"
		}
		return fmt.Sprintf("match %.0f/100", critique.MatchScore)
	}
	return ""
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "filter by kind (job_posting or resume)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max analyses to list")
	rootCmd.AddCommand(historyCmd)
}
