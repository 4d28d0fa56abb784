package extract

import (
	"strconv"
	"strings"
)

// scanBool probes unstructured text for `"name": true|false`. First match
// wins.
func (f *FieldSpec) scanBool(text string) (bool, bool) {
	m := f.boolProbe.FindStringSubmatch(text)
	if m == nil {
		return false, false
	}
	return strings.EqualFold(m[1], "true"), true
}

// scanNumber probes unstructured text for a bare numeric value after the
// field name.
func (f *FieldSpec) scanNumber(text string) (float64, bool) {
	m := f.numProbe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
