package extract

import (
	"fmt"
	"math"
	"strings"
)

// resolved tracks a single field's extraction result before normalization.
// Object fields carry a map of member name to resolved.
type resolved struct {
	value any
	tier  Tier
	ok    bool
}

// sentinelNull reports whether a string value the model produced means
// "absent": empty, whitespace, or the token "null" in any case.
func sentinelNull(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || strings.EqualFold(t, "null")
}

// normalize walks the schema in declaration order, filling defaults,
// clamping numbers, mapping sentinel nulls to absent, and recording a
// warning for every corrective action. It returns the final record, the
// worst tier among resolved fields, and whether anything at all was
// recovered from the text.
func normalize(schema Schema, got map[string]resolved, warnings *[]string) (map[string]any, Tier, bool) {
	fields := make(map[string]any, len(schema.Fields))
	worst := TierExact
	resolvedAny := false

	use := func(t Tier) {
		worst = Worst(worst, t)
		resolvedAny = true
	}

	for i := range schema.Fields {
		f := &schema.Fields[i]
		r := got[f.Name]

		switch f.Kind {
		case KindBool:
			b, ok := r.value.(bool)
			if !r.ok || !ok {
				fields[f.Name] = f.DefaultBool
				*warnings = append(*warnings, "defaulted field: "+f.Name)
				break
			}
			fields[f.Name] = b
			use(r.tier)

		case KindNumber:
			n, ok := r.value.(float64)
			if !r.ok || !ok || math.IsNaN(n) {
				fields[f.Name] = f.DefaultNumber
				*warnings = append(*warnings, "defaulted field: "+f.Name)
				break
			}
			clamped := math.Min(f.Max, math.Max(f.Min, n))
			if clamped != n {
				*warnings = append(*warnings, fmt.Sprintf("clamped %s from %v to %v", f.Name, n, clamped))
			}
			fields[f.Name] = clamped
			use(r.tier)

		case KindString:
			s, ok := r.value.(string)
			if !r.ok || !ok || strings.TrimSpace(s) == "" {
				fields[f.Name] = f.DefaultString
				*warnings = append(*warnings, "defaulted field: "+f.Name)
				break
			}
			fields[f.Name] = s
			use(r.tier)

		case KindOptionalString:
			s, ok := r.value.(string)
			if r.ok && ok && !sentinelNull(s) {
				fields[f.Name] = s
				use(r.tier)
			} else {
				fields[f.Name] = nil
			}

		case KindObject:
			// A fully absent object still yields all-absent members, never
			// a nil object.
			members, _ := r.value.(map[string]resolved)
			obj := make(map[string]any, len(f.Members))
			for j := range f.Members {
				m := &f.Members[j]
				mr := members[m.Name]
				if s, ok := mr.value.(string); mr.ok && ok && !sentinelNull(s) {
					obj[m.Name] = s
					use(mr.tier)
				} else {
					obj[m.Name] = nil
				}
			}
			fields[f.Name] = obj
		}
	}

	if !resolvedAny {
		worst = TierFallback
	}
	return fields, worst, resolvedAny
}
