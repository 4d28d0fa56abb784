// Package export writes analysis history to spreadsheet or YAML files.
package export

import (
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
)

// Row is the flattened form of one analysis, shared by both formats.
type Row struct {
	ID         string  `yaml:"id"`
	Kind       string  `yaml:"kind"`
	Input      string  `yaml:"input"`
	Verdict    string  `yaml:"verdict,omitempty"`
	Score      float64 `yaml:"score"`
	Summary    string  `yaml:"summary"`
	Provenance string  `yaml:"provenance"`
	Credits    int     `yaml:"credits"`
	CreatedAt  string  `yaml:"created_at"`
}

// Flatten converts analyses to export rows. Analyses with unreadable
// reports are kept with an empty summary rather than dropped.
func Flatten(analyses []model.Analysis) []Row {
	rows := make([]Row, 0, len(analyses))
	for i := range analyses {
		a := &analyses[i]
		row := Row{
			ID:         a.ID,
			Kind:       string(a.Kind),
			Input:      a.Input,
			Provenance: a.Provenance,
			Credits:    a.Credits,
			CreatedAt:  a.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		switch a.Kind {
		case model.KindJobPosting:
			if report, err := a.AuthenticityReport(); err == nil {
				row.Verdict = string(report.Verdict)
				row.Score = report.ConfidenceScore
				row.Summary = report.Evidence
			}
		case model.KindResume:
			if critique, err := a.ResumeCritique(); err == nil {
				row.Score = critique.MatchScore
				row.Summary = critique.Tips
			}
		}
		rows = append(rows, row)
	}
	return rows
}

var xlsxHeader = []string{"id", "kind", "input", "verdict", "score", "summary", "provenance", "credits", "created_at"}

// WriteXLSX writes rows to an .xlsx workbook with a header row.
func WriteXLSX(path string, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("analyses")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.Kind)
		row.AddCell().SetString(r.Input)
		row.AddCell().SetString(r.Verdict)
		row.AddCell().SetFloatWithFormat(r.Score, "0")
		row.AddCell().SetString(r.Summary)
		row.AddCell().SetString(r.Provenance)
		row.AddCell().SetString(strconv.Itoa(r.Credits))
		row.AddCell().SetString(r.CreatedAt)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteYAML writes rows as a YAML document list.
func WriteYAML(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: close encoder")
}
