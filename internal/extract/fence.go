package extract

import (
	"regexp"
	"strings"
)

// fenceTagRe matches a markdown fence language tag ("json", "JSON", "", ...).
var fenceTagRe = regexp.MustCompile(`^[A-Za-z0-9_+-]*$`)

// StripFences removes a single leading markdown code fence, with its
// optional language tag, and a single trailing fence. Interior backtick
// runs, including fences embedded inside a field value, are left alone.
func StripFences(s string) string {
	out := strings.TrimSpace(s)
	if strings.HasPrefix(out, "```") {
		rest := out[3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && fenceTagRe.MatchString(strings.TrimSpace(rest[:nl])) {
			rest = rest[nl+1:]
		}
		out = strings.TrimSpace(rest)
	}
	if strings.HasSuffix(out, "```") {
		out = strings.TrimSpace(strings.TrimSuffix(out, "```"))
	}
	return out
}
