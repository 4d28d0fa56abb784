package doctext

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath  string
	maxPages int
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is used. maxPages of zero disables the page cap.
func NewPdfToText(binPath string, maxPages int) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath, maxPages: maxPages}
}

// ExtractText validates the PDF, then runs pdftotext -layout on it and
// returns stdout. Encrypted or over-length PDFs are rejected before the
// subprocess runs.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	pages, err := api.PageCountFile(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "doctext: not a readable PDF: %s", pdfPath)
	}
	if p.maxPages > 0 && pages > p.maxPages {
		return "", eris.Errorf("doctext: %s has %d pages, limit is %d", pdfPath, pages, p.maxPages)
	}

	args := []string{"-layout"}
	if p.maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.maxPages))
	}
	args = append(args, pdfPath, "-")
	cmd := exec.CommandContext(ctx, p.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "doctext: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return stdout.String(), nil
}
