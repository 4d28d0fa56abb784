package extract

import (
	"fmt"
	"regexp"
)

// FieldKind enumerates the value types a schema field can declare.
type FieldKind int

const (
	// KindBool is a boolean field defaulting to DefaultBool.
	KindBool FieldKind = iota
	// KindNumber is a numeric field clamped into [Min, Max].
	KindNumber
	// KindString is a required free-text field defaulting to DefaultString.
	KindString
	// KindOptionalString is a free-text field where absence, "" and "null"
	// all normalize to absent.
	KindOptionalString
	// KindObject is a nested object of optional string members.
	KindObject
)

// FieldSpec declares one expected field: its name, kind, numeric bounds and
// default. Object fields carry their member specs; members are always
// optional strings.
type FieldSpec struct {
	Name          string
	Kind          FieldKind
	Min, Max      float64
	DefaultBool   bool
	DefaultNumber float64
	DefaultString string
	Members       []FieldSpec

	// compiled once at schema construction
	stringOpen *regexp.Regexp // `"name"\s*:\s*"` opener for the quote-aware scanner
	boolProbe  *regexp.Regexp
	numProbe   *regexp.Regexp
	marker     *regexp.Regexp // bare `"name"` occurrence, for the truncation heuristic
}

// Schema declares the full set of fields one use case expects from the
// model. Schemas are built once at process start and never mutated.
type Schema struct {
	Name   string
	Fields []FieldSpec
}

// NewSchema builds a schema and pre-compiles the per-field scan patterns.
// Panics on an empty field list or inverted bounds; schemas are package
// constants, so this fails at startup, not per request.
func NewSchema(name string, fields ...FieldSpec) Schema {
	if len(fields) == 0 {
		panic("extract: schema " + name + " declares no fields")
	}
	for i := range fields {
		compileField(&fields[i])
	}
	return Schema{Name: name, Fields: fields}
}

func compileField(f *FieldSpec) {
	if f.Kind == KindNumber && f.Min > f.Max {
		panic(fmt.Sprintf("extract: field %s declares min > max", f.Name))
	}
	quoted := regexp.QuoteMeta(f.Name)
	f.marker = regexp.MustCompile(`"` + quoted + `"`)
	switch f.Kind {
	case KindString, KindOptionalString:
		f.stringOpen = regexp.MustCompile(`"` + quoted + `"\s*:\s*"`)
	case KindBool:
		// Only the value is case-folded; field names match exactly, same
		// as every other probe.
		f.boolProbe = regexp.MustCompile(`"` + quoted + `"\s*:\s*((?i:true|false))`)
	case KindNumber:
		f.numProbe = regexp.MustCompile(`"` + quoted + `"\s*:\s*(-?\d+(\.\d+)?)`)
	case KindObject:
		for i := range f.Members {
			f.Members[i].Kind = KindOptionalString
			compileField(&f.Members[i])
		}
	}
}

// Authenticity is the schema for job-posting authenticity verdicts.
var Authenticity = NewSchema("authenticity",
	FieldSpec{Name: "is_authentic", Kind: KindBool},
	FieldSpec{Name: "confidence_score", Kind: KindNumber, Min: 0, Max: 100, DefaultNumber: 50},
	FieldSpec{Name: "evidence", Kind: KindString, DefaultString: "No evidence provided"},
	FieldSpec{Name: "extracted_data", Kind: KindObject, Members: []FieldSpec{
		{Name: "company"},
		{Name: "location"},
		{Name: "industry"},
	}},
)

// Critique is the schema for résumé critiques.
var Critique = NewSchema("resume_critique",
	FieldSpec{Name: "match_score", Kind: KindNumber, Min: 0, Max: 100, DefaultNumber: 50},
	FieldSpec{Name: "tips", Kind: KindString, DefaultString: "No tips generated."},
)
