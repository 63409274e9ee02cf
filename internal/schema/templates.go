package schema

import (
	"github.com/clebronrivera/reading-compass-sub001/internal/tabular"
)

// exampleRows holds one or two illustrative data rows per import type.
// Templates are a download convenience for content editors; they carry no
// validation weight.
var exampleRows = map[ImportType][][]string{
	ImportItems: {
		{"READING.G3.form01", "1", "multiple_choice", "Which color is the sky?", "", "Blue|Red|Green", "Blue", "comprehension|literal", ""},
		{"READING.G3.form01", "2", "passage", "", "The fox ran across the quiet field at dawn.", "", "", "fluency", ""},
	},
	ImportForms: {
		{"READING.G3.form01", "READING", "READING.BANK.core", "G3", "1", "draft", ""},
	},
	ImportBanks: {
		{"READING.BANK.core", "READING", "120", "empty", "comprehension|fluency", "false"},
	},
	ImportSpecVersion: {
		{"READING.ASR.v2", "READING", "section_a", "assessment_name", "Reading Comprehension"},
		{"READING.ASR.v2", "READING", "section_e", "total_items", "40"},
	},
	ImportScoring: {
		{"READING.SCORE.standard", "READING", "raw_correct", "raw", "Raw Correct", "", "", ""},
		{"READING.SCORE.standard", "READING", "pct_correct", "derived", "Percent Correct", "raw_correct / item_count * 100", "", "85"},
	},
}

// Template renders a downloadable CSV template for an import type: the
// header row followed by example data rows.
func Template(t ImportType) (string, bool) {
	ts, ok := specs[t]
	if !ok {
		return "", false
	}

	header := make([]string, len(ts.FieldSpecs))
	for i, fs := range ts.FieldSpecs {
		header[i] = fs.Name
	}

	grid := [][]string{header}
	grid = append(grid, exampleRows[t]...)
	return tabular.Serialize(grid), true
}
