// Package extract turns free-form generative-model output into a validated,
// strictly typed record. The model's format is not a contract: the response
// may be clean JSON, fenced JSON, JSON whose string fields contain unescaped
// quotes or raw newlines, truncated JSON, or pure prose. Extraction degrades
// through ordered tiers (direct parse, brace-matched substring, per-field
// scanning, defaults) and always returns a complete record tagged with the
// worst tier it had to use.
package extract

import "fmt"

// Extract runs the tiered pipeline over one raw model response. It is
// total: any input, including empty strings and adversarial near-JSON,
// yields a record with every schema field populated, a provenance tier, and
// the ordered list of corrective actions taken. It never returns an error.
func Extract(raw string, schema Schema) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fallbackOutcome(schema, fmt.Sprintf("extraction aborted: %v", r))
		}
	}()

	stripped := StripFences(raw)

	var (
		doc  map[string]any
		tier Tier
	)
	if m, ok := parseObject(stripped); ok {
		doc, tier = m, TierExact
	} else if span, ok := objectSpan(stripped); ok {
		if m, ok := parseObject(span); ok {
			doc, tier = m, TierSubstring
		}
	}

	var warnings []string
	got := make(map[string]resolved, len(schema.Fields))

	if doc != nil {
		structuralResolve(schema, doc, stripped, tier, got, &warnings)
	} else {
		manualResolve(schema, raw, stripped, got, &warnings)
	}

	fields, worst, resolvedAny := normalize(schema, got, &warnings)
	if !resolvedAny {
		warnings = append(warnings, "no fields recovered from response")
	}
	return Outcome{Fields: fields, Provenance: worst, Warnings: warnings}
}

// structuralResolve pulls schema fields out of a successfully parsed JSON
// document. Keys are matched case-sensitively; unknown keys are ignored,
// mistyped values are left unresolved for the normalizer to default.
func structuralResolve(schema Schema, doc map[string]any, stripped string, tier Tier, got map[string]resolved, warnings *[]string) {
	for i := range schema.Fields {
		f := &schema.Fields[i]
		v, present := doc[f.Name]

		switch f.Kind {
		case KindBool:
			if b, ok := v.(bool); present && ok {
				got[f.Name] = resolved{value: b, tier: tier, ok: true}
			} else if present && v != nil {
				*warnings = append(*warnings, "ignored mistyped field: "+f.Name)
			}

		case KindNumber:
			if n, ok := v.(float64); present && ok {
				got[f.Name] = resolved{value: n, tier: tier, ok: true}
			} else if present && v != nil {
				*warnings = append(*warnings, "ignored mistyped field: "+f.Name)
			}

		case KindString, KindOptionalString:
			if s, ok := v.(string); present && ok {
				val, t := rescueTruncated(f, schema.Fields, stripped, s, tier, warnings)
				got[f.Name] = resolved{value: val, tier: t, ok: true}
			} else if present && v != nil {
				*warnings = append(*warnings, "ignored mistyped field: "+f.Name)
			}

		case KindObject:
			sub, _ := v.(map[string]any)
			members := make(map[string]resolved, len(f.Members))
			for j := range f.Members {
				m := &f.Members[j]
				if s, ok := sub[m.Name].(string); ok {
					members[m.Name] = resolved{value: s, tier: tier, ok: true}
				}
			}
			got[f.Name] = resolved{value: members, tier: tier, ok: len(members) > 0}
		}
	}
}

// rescueTruncated re-scans a structurally parsed string field whose decoded
// value is suspiciously short next to the raw span the field covers in the
// text (decoded length under 10% of the distance to the next field marker).
// That pattern means the parser stopped at an unescaped quote the model
// emitted mid-value. The manual scan wins only when it recovers more.
func rescueTruncated(f *FieldSpec, all []FieldSpec, stripped, decoded string, tier Tier, warnings *[]string) (string, Tier) {
	dist := markerDistance(stripped, f, all)
	if dist == 0 || len(decoded)*10 >= dist {
		return decoded, tier
	}
	v, found, terminated := f.scanString(stripped)
	if !found || len(v) <= len(decoded) {
		return decoded, tier
	}
	if !terminated {
		*warnings = append(*warnings, "unterminated field: "+f.Name)
	}
	*warnings = append(*warnings, "rescanned truncated field: "+f.Name)
	return v, TierManual
}

// manualResolve reconstructs fields without any JSON structure: string
// fields via the quote-aware scanner on the fence-stripped text, scalar
// fields via regex probes against the original text.
func manualResolve(schema Schema, raw, stripped string, got map[string]resolved, warnings *[]string) {
	for i := range schema.Fields {
		f := &schema.Fields[i]

		switch f.Kind {
		case KindBool:
			if v, ok := f.scanBool(raw); ok {
				got[f.Name] = resolved{value: v, tier: TierManual, ok: true}
				*warnings = append(*warnings, "fell back to regex for "+f.Name)
			}

		case KindNumber:
			if v, ok := f.scanNumber(raw); ok {
				got[f.Name] = resolved{value: v, tier: TierManual, ok: true}
				*warnings = append(*warnings, "fell back to regex for "+f.Name)
			}

		case KindString, KindOptionalString:
			if v, found, terminated := f.scanString(stripped); found {
				if !terminated {
					*warnings = append(*warnings, "unterminated field: "+f.Name)
				}
				got[f.Name] = resolved{value: v, tier: TierManual, ok: true}
			}

		case KindObject:
			members := make(map[string]resolved, len(f.Members))
			for j := range f.Members {
				m := &f.Members[j]
				if v, found, terminated := m.scanString(stripped); found {
					if !terminated {
						*warnings = append(*warnings, "unterminated field: "+m.Name)
					}
					members[m.Name] = resolved{value: v, tier: TierManual, ok: true}
				}
			}
			got[f.Name] = resolved{value: members, tier: TierManual, ok: len(members) > 0}
		}
	}
}

// fallbackOutcome builds an all-defaults record carrying the given warning.
func fallbackOutcome(schema Schema, warning string) Outcome {
	warnings := []string{warning}
	fields, _, _ := normalize(schema, map[string]resolved{}, &warnings)
	return Outcome{Fields: fields, Provenance: TierFallback, Warnings: warnings}
}
