package extract

import "go.uber.org/zap"

// Outcome is the result of one extraction call: a fully populated record,
// the provenance tier, and every corrective action taken along the way.
// After Extract returns, every field the schema declares is present in
// Fields, either recovered from the text or defaulted.
type Outcome struct {
	Fields     map[string]any
	Provenance Tier
	Warnings   []string
}

// Bool returns a boolean field by name.
func (o *Outcome) Bool(name string) bool {
	v, _ := o.Fields[name].(bool)
	return v
}

// Number returns a numeric field by name.
func (o *Outcome) Number(name string) float64 {
	v, _ := o.Fields[name].(float64)
	return v
}

// Text returns a string field by name.
func (o *Outcome) Text(name string) string {
	v, _ := o.Fields[name].(string)
	return v
}

// Object returns the resolved members of a nested-object field. Absent
// members are omitted from the result.
func (o *Outcome) Object(name string) map[string]string {
	obj, _ := o.Fields[name].(map[string]any)
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// LogFields renders the outcome as structured log fields:
// {"provenance": ..., "warnings": [...], "fields": {...}}.
func (o *Outcome) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("provenance", o.Provenance.String()),
		zap.Strings("warnings", o.Warnings),
		zap.Any("fields", o.Fields),
	}
}
