package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ruvia-hq/ruvia-cli/internal/export"
	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/internal/store"
)

var (
	exportOut    string
	exportFormat string
	exportKind   string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analysis history to xlsx or yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if format == "" {
			switch strings.ToLower(filepath.Ext(exportOut)) {
			case ".xlsx":
				format = "xlsx"
			case ".yaml", ".yml":
				format = "yaml"
			default:
				return eris.Errorf("cannot infer format from %q, pass --format", exportOut)
			}
		}

		ctx := cmd.Context()
		env, err := initData(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		analyses, err := env.Store.ListAnalyses(ctx, store.AnalysisFilter{
			Kind:  model.AnalysisKind(exportKind),
			Limit: exportLimit,
		})
		if err != nil {
			return err
		}

		rows := export.Flatten(analyses)
		switch format {
		case "xlsx":
			err = export.WriteXLSX(exportOut, rows)
		case "yaml":
			err = export.WriteYAML(exportOut, rows)
		default:
			return eris.Errorf("unknown format %q (use xlsx or yaml)", format)
		}
		if err != nil {
			return err
		}

		fmt.Printf("exported %d analyses to %s\n", len(rows), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "xlsx or yaml (default: from extension)")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "filter by kind (job_posting or resume)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "max analyses to export")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
