// Package schema declares the per-import-type field constraints the row
// validator enforces: required column sets, cell types, enum memberships,
// and cross-field at-least-one-of groups. Import types form a closed
// enumeration; there is no runtime schema registration beyond this package.
package schema

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// ImportType tags one of the five supported tabular import formats.
type ImportType string

const (
	ImportItems       ImportType = "items"
	ImportForms       ImportType = "forms"
	ImportBanks       ImportType = "banks"
	ImportSpecVersion ImportType = "specVersion"
	ImportScoring     ImportType = "scoring"
)

// FieldType represents the expected data type for a cell.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldNumber
	FieldBool
	FieldEnum
)

// idPattern matches dot-delimited lineage identifiers such as
// "READING.G3.form01".
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// FieldSpec defines validation rules for a single column.
type FieldSpec struct {
	Name       string         // column header name
	Type       FieldType      // expected cell type
	Required   bool           // column must exist and (unless AllowEmpty) be non-empty
	AllowEmpty bool           // empty values allowed even when Required
	EnumValues []string       // valid values for FieldEnum
	Pattern    *regexp.Regexp // optional format constraint, applied to non-empty cells
}

// TypeSpec is the declarative schema for one import type.
type TypeSpec struct {
	Type       ImportType
	Label      string // display name, also used in change-log summaries
	Vertical   bool   // many rows contribute to few logical records
	GroupBy    string // grouping column for vertical/grouped formats
	FieldSpecs []FieldSpec
	// OneOf lists groups of columns where at least one member must be
	// non-empty on every row.
	OneOf [][]string
}

// RequiredColumns returns the names of all required columns, in spec order.
func (ts TypeSpec) RequiredColumns() []string {
	var cols []string
	for _, fs := range ts.FieldSpecs {
		if fs.Required {
			cols = append(cols, fs.Name)
		}
	}
	return cols
}

// Field returns the spec for a named column, if declared.
func (ts TypeSpec) Field(name string) (FieldSpec, bool) {
	for _, fs := range ts.FieldSpecs {
		if strings.EqualFold(fs.Name, name) {
			return fs, true
		}
	}
	return FieldSpec{}, false
}

var specs = map[ImportType]TypeSpec{
	ImportItems: {
		Type:    ImportItems,
		Label:   "Items",
		GroupBy: "form_id",
		FieldSpecs: []FieldSpec{
			{Name: "form_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "sequence", Type: FieldInteger, Required: true},
			{Name: "item_type", Type: FieldEnum, Required: true, EnumValues: entity.ItemTypes},
			{Name: "stimulus", Type: FieldText},
			{Name: "text", Type: FieldText},
			{Name: "choices", Type: FieldText},
			{Name: "correct_answer", Type: FieldText},
			{Name: "scoring_tags", Type: FieldText},
			{Name: "word_count", Type: FieldInteger},
		},
		OneOf: [][]string{{"stimulus", "text"}},
	},
	ImportForms: {
		Type:  ImportForms,
		Label: "Forms",
		FieldSpecs: []FieldSpec{
			{Name: "form_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "assessment_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "content_bank_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "grade_level", Type: FieldText, Required: true},
			{Name: "form_number", Type: FieldInteger, Required: true},
			{Name: "status", Type: FieldEnum, EnumValues: []string{
				string(entity.FormDraft), string(entity.FormActive), string(entity.FormRetired),
			}},
			{Name: "equivalence_set_id", Type: FieldText},
		},
	},
	ImportBanks: {
		Type:  ImportBanks,
		Label: "Banks",
		FieldSpecs: []FieldSpec{
			{Name: "bank_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "assessment_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "target_size", Type: FieldInteger, Required: true},
			{Name: "status", Type: FieldEnum, EnumValues: []string{
				string(entity.BankEmpty), string(entity.BankInProgress), string(entity.BankReady),
			}},
			{Name: "domains", Type: FieldText},
			{Name: "adaptive", Type: FieldBool},
		},
	},
	ImportSpecVersion: {
		Type:     ImportSpecVersion,
		Label:    "ASR",
		Vertical: true,
		GroupBy:  "version_id",
		FieldSpecs: []FieldSpec{
			{Name: "version_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "assessment_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "section", Type: FieldEnum, Required: true, EnumValues: entity.SectionKeys},
			{Name: "field", Type: FieldText, Required: true},
			{Name: "value", Type: FieldText, Required: true, AllowEmpty: true},
		},
	},
	ImportScoring: {
		Type:    ImportScoring,
		Label:   "Scoring",
		GroupBy: "model_id",
		FieldSpecs: []FieldSpec{
			{Name: "model_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "assessment_id", Type: FieldText, Required: true, Pattern: idPattern},
			{Name: "metric_id", Type: FieldText, Required: true},
			{Name: "metric_type", Type: FieldEnum, Required: true, EnumValues: []string{"raw", "derived"}},
			{Name: "label", Type: FieldText},
			{Name: "formula", Type: FieldText},
			{Name: "flag", Type: FieldText},
			{Name: "threshold", Type: FieldNumber},
		},
	},
}

// Lookup returns the schema for an import type.
func Lookup(t ImportType) (TypeSpec, bool) {
	ts, ok := specs[t]
	return ts, ok
}

// All returns every declared import-type schema, sorted by type tag.
func All() []TypeSpec {
	out := make([]TypeSpec, 0, len(specs))
	for _, ts := range specs {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Types returns the closed enumeration of import-type tags.
func Types() []ImportType {
	out := make([]ImportType, 0, len(specs))
	for t := range specs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
