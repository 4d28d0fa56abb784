package extract

import "encoding/json"

// parseObject attempts a strict parse of s as a single JSON object.
func parseObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, m != nil
}

// objectSpan finds the first complete top-level {...} span by counting
// braces left to right. Braces inside quoted strings are skipped, with
// backslash-escape parity deciding whether a quote closes the string.
func objectSpan(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	run := 0 // consecutive backslashes immediately behind the cursor
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case c == '\\':
				run++
			case c == '"' && run%2 == 0:
				inString = false
				run = 0
			default:
				run = 0
			}
			continue
		}
		switch c {
		case '"':
			// Quotes before the first brace are prose, not JSON strings.
			if start >= 0 {
				inString = true
				run = 0
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
