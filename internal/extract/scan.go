package extract

import (
	"encoding/json"
	"strings"
)

// scanState is the closing-quote scanner's state. A quote closes the value
// exactly when the run of backslashes immediately before it has even length:
// an even run pairs off escaping itself, an odd run escapes the quote.
type scanState int

const (
	stateScanning scanState = iota
	stateBackslashRun
)

// manualUnescape handles the common escapes when full JSON unescaping fails,
// leaving anything else literal.
var manualUnescape = strings.NewReplacer(
	`\n`, "\n",
	`\"`, `"`,
	`\\`, `\`,
	`\t`, "\t",
)

// scanString recovers the value of string field f from text, independent of
// whether the text is valid JSON. It locates the `"f": "` opener, then walks
// byte by byte tracking backslash-run parity to find the true closing quote.
// terminated is false when the input ends first; the remainder of the text
// is then taken as the value.
func (f *FieldSpec) scanString(text string) (value string, found, terminated bool) {
	loc := f.stringOpen.FindStringIndex(text)
	if loc == nil {
		return "", false, false
	}
	open := loc[1] // index just past the opening quote
	state := stateScanning
	run := 0
	for i := open; i < len(text); i++ {
		switch c := text[i]; state {
		case stateScanning:
			switch c {
			case '\\':
				state = stateBackslashRun
				run = 1
			case '"':
				return unescape(text[open:i]), true, true
			}
		case stateBackslashRun:
			switch c {
			case '\\':
				run++
			case '"':
				if run%2 == 0 {
					return unescape(text[open:i]), true, true
				}
				state = stateScanning
			default:
				state = stateScanning
			}
		}
	}
	return unescape(text[open:]), true, false
}

// unescape decodes raw JSON string content. When strict decoding fails (the
// model emitted an invalid escape or a literal control byte), the common
// escapes are replaced manually and the rest is kept literal rather than
// failing the extraction.
func unescape(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &s); err == nil {
		return s
	}
	return manualUnescape.Replace(raw)
}

// markerDistance measures the span of text that plausibly belongs to field
// f: from f's first marker occurrence to the next other-field marker after
// it, or end of input. Returns 0 when f's marker is absent.
func markerDistance(text string, f *FieldSpec, all []FieldSpec) int {
	loc := f.marker.FindStringIndex(text)
	if loc == nil {
		return 0
	}
	end := len(text)
	for i := range all {
		if all[i].Name == f.Name {
			continue
		}
		if l := all[i].marker.FindStringIndex(text[loc[1]:]); l != nil {
			if cand := loc[1] + l[0]; cand < end {
				end = cand
			}
		}
	}
	return end - loc[0]
}
