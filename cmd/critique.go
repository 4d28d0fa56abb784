package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
)

var (
	critiqueResume string
	critiqueJob    string
)

var critiqueCmd = &cobra.Command{
	Use:   "critique",
	Short: "Critique a resume against a job description",
	Long:  "Scores a resume (.txt, .md, or .pdf) against a job description given as a file, a posting URL, or inline text.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Ledger.Reserve(ctx); err != nil {
			return err
		}

		jobDescription, err := resolveJobDescription(cmd, env)
		if err != nil {
			return err
		}

		critique, err := env.Resumes.Critique(ctx, critiqueResume, jobDescription)
		if err != nil {
			return err
		}

		if _, err := persistAnalysis(ctx, env, model.KindResume, critiqueResume, critique.Provenance, critique); err != nil {
			return err
		}

		fmt.Printf("\nmatch score: %.0f/100\n", critique.MatchScore)
		fmt.Printf("provenance:  %s\n", critique.Provenance)
		fmt.Printf("\n%s\n", critique.Tips)
		for _, w := range critique.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		return nil
	},
}

// resolveJobDescription accepts a posting URL, a local file, or inline text.
func resolveJobDescription(cmd *cobra.Command, env *appEnv) (string, error) {
	ctx := cmd.Context()

	if strings.HasPrefix(critiqueJob, "http://") || strings.HasPrefix(critiqueJob, "https://") {
		posting, err := env.Fetcher.Fetch(ctx, critiqueJob)
		if err != nil {
			return "", err
		}
		return posting.Text, nil
	}

	if strings.HasSuffix(critiqueJob, ".txt") || strings.HasSuffix(critiqueJob, ".md") || strings.HasSuffix(critiqueJob, ".pdf") {
		text, err := env.Doctext.Extract(ctx, critiqueJob)
		if err != nil {
			return "", err
		}
		return text, nil
	}

	if strings.TrimSpace(critiqueJob) == "" {
		return "", eris.New("--job is required")
	}
	return critiqueJob, nil
}

func init() {
	critiqueCmd.Flags().StringVar(&critiqueResume, "resume", "", "path to the resume file")
	critiqueCmd.Flags().StringVar(&critiqueJob, "job", "", "job description: file, posting URL, or inline text")
	_ = critiqueCmd.MarkFlagRequired("resume")
	_ = critiqueCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(critiqueCmd)
}
