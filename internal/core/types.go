// Package core implements the import & validation pipeline and the
// activation gate engine for assessment content. It has no UI dependencies;
// callers hand it parsed grids and receive complete, inspectable reports.
package core

import (
	"fmt"

	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

// HeaderIndex maps lowercased column names to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, col := range header {
		idx[normalizeHeader(col)] = i
	}
	return idx
}

// RowError is a row-scoped validation failure. Row is the 1-based display
// row number where the header counts as row 1, so the first data row is 2.
// Row 1 is used for header-level problems such as missing columns.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d, %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ImportError is one accumulated failure in an import result. At most one
// of Row, Batch, or Group is set, depending on the failure scope.
type ImportError struct {
	Row     int    `json:"row,omitempty"`   // 1-based display row, row-scoped failures
	Batch   int    `json:"batch,omitempty"` // 1-based batch index, write failures
	Group   string `json:"group,omitempty"` // target id, vertical-group failures
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ImportError) Error() string {
	switch {
	case e.Batch > 0:
		return fmt.Sprintf("batch %d: %s", e.Batch, e.Message)
	case e.Group != "":
		return fmt.Sprintf("group %s: %s", e.Group, e.Message)
	case e.Row > 0 && e.Field != "":
		return fmt.Sprintf("row %d, %s: %s", e.Row, e.Field, e.Message)
	case e.Row > 0:
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

func rowImportError(re RowError) ImportError {
	return ImportError{Row: re.Row, Field: re.Field, Message: re.Message}
}

// ImportResult is the complete summary of one import submission. The
// pipeline always returns one, even when every unit failed.
type ImportResult struct {
	Success       bool          `json:"success"`
	RowsProcessed int           `json:"rowsProcessed"`
	RowsCreated   int           `json:"rowsCreated"`
	RowsUpdated   int           `json:"rowsUpdated"`
	RowsFailed    int           `json:"rowsFailed"`
	Errors        []ImportError `json:"errors,omitempty"`
}

// Progress is an observational snapshot reported after each batch or
// vertical group. It never influences control flow.
type Progress struct {
	UnitsDone  int    `json:"unitsDone"`
	UnitsTotal int    `json:"unitsTotal"`
	Phase      string `json:"phase"`
}

// ProgressFunc receives Progress updates during an import.
type ProgressFunc func(Progress)

// ImportRequest carries everything one import submission needs. Header and
// Rows come straight from the tabular parser: Header is the first grid row,
// Rows the rest.
type ImportRequest struct {
	Type   schema.ImportType
	Header []string
	Rows   [][]string
	Note   string
	// Actor attributes change-log and history entries; empty means the
	// system label.
	Actor string
	// AssessmentID is the caller's current context. When set, any row whose
	// assessment_id differs is rejected as a cross-context paste.
	AssessmentID string
	OnProgress   ProgressFunc
}

// ReferenceAnalysis classifies the natural keys of a batch as brand-new
// creates vs updates to pre-existing entities, for pre-commit review.
type ReferenceAnalysis struct {
	Creates []string `json:"creates"`
	Updates []string `json:"updates"`
}

// ReferenceReport is the outcome of reference validation for one batch.
type ReferenceReport struct {
	Valid    bool              `json:"valid"`
	Errors   []RowError        `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Analysis ReferenceAnalysis `json:"analysis"`
}

// indexedRow pairs a schema-valid data row with its display row number.
type indexedRow struct {
	display int
	cells   []string
}
