package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"uppercase tag", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no trailing fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"no newline after fence", "```{\"a\": 1}```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
		{"content on fence line kept", "```json {\"a\": 1}\n{\"b\": 2}```", "json {\"a\": 1}\n{\"b\": 2}"},
		{"interior backticks untouched", "```json\n{\"evidence\": \"use ``` for code\"}\n```", `{"evidence": "use ` + "```" + ` for code"}`},
		{"empty", "", ""},
		{"only fences", "```json\n```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}
