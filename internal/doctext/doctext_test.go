package doctext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractPlainText(t *testing.T) {
	path := writeFile(t, "resume.txt", "Jane Doe\r\nSoftware Engineer\r\n\r\n\r\n\r\nExperience: 5 years Go\n")

	e := NewExtractor("", 0, 0)
	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\nSoftware Engineer\n\nExperience: 5 years Go", text)
}

func TestExtractMarkdown(t *testing.T) {
	path := writeFile(t, "resume.md", "# Jane Doe\n\n- Go\n- Postgres\n")

	e := NewExtractor("", 0, 0)
	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "# Jane Doe")
}

func TestExtractUnsupportedType(t *testing.T) {
	path := writeFile(t, "resume.docx", "not really a docx")

	e := NewExtractor("", 0, 0)
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor("", 0, 0)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestExtractEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", "   \n\n  \n")

	e := NewExtractor("", 0, 0)
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text extracted")
}

func TestExtractCharCap(t *testing.T) {
	path := writeFile(t, "long.txt", strings.Repeat("a", 500))

	e := NewExtractor("", 0, 100)
	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, text, 100)
}

func TestExtractNotAPDF(t *testing.T) {
	path := writeFile(t, "fake.pdf", "this is plaintext pretending to be a PDF")

	e := NewExtractor("", 20, 0)
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a readable PDF")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "crlf to lf",
			in:   "a\r\nb\rc",
			want: "a\nb\nc",
		},
		{
			name: "collapses blank runs",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "trims trailing whitespace per line",
			in:   "a   \nb\t\n",
			want: "a\nb",
		},
		{
			name: "strips NUL bytes",
			in:   "a\x00b",
			want: "ab",
		},
		{
			name: "composes accents",
			in:   "José", // e + combining acute
			want: "José",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTruncateAtRune(t *testing.T) {
	// é is two bytes; cutting at 3 would split it.
	s := "abécd"
	assert.Equal(t, "ab", truncateAtRune(s, 3))
	assert.Equal(t, "abé", truncateAtRune(s, 4))
	assert.Equal(t, s, truncateAtRune(s, 100))
}
