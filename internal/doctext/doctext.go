// Package doctext extracts plaintext from résumé files. Plain text and
// Markdown are read directly; PDFs go through the pdftotext CLI tool after
// a page-count sanity check.
package doctext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Extractor converts a résumé file into plaintext.
type Extractor struct {
	pdf      *PdfToText
	maxPages int
	maxChars int
}

// NewExtractor creates an Extractor. pdfToTextPath defaults to "pdftotext"
// when empty; maxPages and maxChars of zero disable those caps.
func NewExtractor(pdfToTextPath string, maxPages, maxChars int) *Extractor {
	return &Extractor{
		pdf:      NewPdfToText(pdfToTextPath, maxPages),
		maxPages: maxPages,
		maxChars: maxChars,
	}
}

// Extract reads the résumé at path and returns normalized plaintext.
// Supported extensions: .txt, .md, .pdf.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	var (
		text string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		text, err = readPlain(path)
	case ".pdf":
		text, err = e.pdf.ExtractText(ctx, path)
	default:
		return "", eris.Errorf("doctext: unsupported file type %q (use .txt, .md, or .pdf)", ext)
	}
	if err != nil {
		return "", err
	}

	text = Normalize(text)
	if text == "" {
		return "", eris.Errorf("doctext: no text extracted from %s", path)
	}

	if e.maxChars > 0 && len(text) > e.maxChars {
		text = truncateAtRune(text, e.maxChars)
		zap.L().Warn("doctext: truncated resume text",
			zap.String("path", path),
			zap.Int("max_chars", e.maxChars),
		)
	}

	return text, nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "doctext: read %s", path)
	}
	return string(data), nil
}

// Normalize applies NFC normalization, converts line endings, and collapses
// excess blank lines. PDF extraction in particular leaves decomposed accents
// and \r\n pairs behind.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")
	var out []string
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// truncateAtRune cuts text to at most max bytes without splitting a rune.
func truncateAtRune(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
