package core

// validation.go applies the declarative per-import-type schemas to parsed
// rows. Every row is validated independently and every problem is reported;
// a row with zero errors is schema-valid, which says nothing yet about
// whether the ids it references exist.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

// ValidateRows checks every data row against the import type's schema and
// returns all field-level errors, tagged with 1-based display row numbers
// (the header is row 1, so the first data row is row 2). Missing required
// columns are reported once against the header row.
func ValidateRows(t schema.ImportType, header []string, rows [][]string) []RowError {
	ts, ok := schema.Lookup(t)
	if !ok {
		return []RowError{{Row: 1, Message: fmt.Sprintf("unknown import type %q", t)}}
	}

	idx := MakeHeaderIndex(header)
	var errs []RowError

	// Header check: every required column must be present.
	var missing []string
	for _, col := range ts.RequiredColumns() {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, RowError{
			Row:     1,
			Message: "missing required columns: " + strings.Join(missing, ", "),
		})
		return errs
	}

	for i, row := range rows {
		errs = append(errs, validateRow(ts, idx, row, i+2)...)
	}
	return errs
}

func validateRow(ts schema.TypeSpec, idx HeaderIndex, row []string, display int) []RowError {
	var errs []RowError

	for _, fs := range ts.FieldSpecs {
		pos, ok := idx[fs.Name]
		if !ok || pos >= len(row) {
			if fs.Required && !fs.AllowEmpty {
				errs = append(errs, RowError{
					Row: display, Field: fs.Name, Message: "required field is empty",
				})
			}
			continue
		}

		raw := CleanCell(row[pos])
		if raw == "" {
			if fs.Required && !fs.AllowEmpty {
				errs = append(errs, RowError{
					Row: display, Field: fs.Name, Message: "required field is empty",
				})
			}
			continue
		}

		if err := validateCell(raw, fs); err != nil {
			errs = append(errs, RowError{
				Row: display, Field: fs.Name, Value: raw, Message: err.Error(),
			})
		}
	}

	// Cross-field groups: at least one member must be non-empty.
	for _, group := range ts.OneOf {
		if !anyPresent(idx, row, group) {
			errs = append(errs, RowError{
				Row:     display,
				Field:   strings.Join(group, "/"),
				Message: "at least one of " + strings.Join(group, " or ") + " is required",
			})
		}
	}

	return errs
}

func validateCell(value string, fs schema.FieldSpec) error {
	switch fs.Type {
	case schema.FieldInteger:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("must be a whole number")
		}
	case schema.FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("must be a number")
		}
	case schema.FieldBool:
		if _, ok := parseBoolish(value); !ok {
			return fmt.Errorf("must be yes/no, true/false, or 1/0")
		}
	case schema.FieldEnum:
		for _, ev := range fs.EnumValues {
			if strings.EqualFold(ev, value) {
				return nil
			}
		}
		return fmt.Errorf("value must be one of: %s", strings.Join(fs.EnumValues, ", "))
	}

	if fs.Pattern != nil && !fs.Pattern.MatchString(value) {
		return fmt.Errorf("does not match the expected format")
	}
	return nil
}

func anyPresent(idx HeaderIndex, row []string, cols []string) bool {
	for _, col := range cols {
		if cellAt(row, idx, col) != "" {
			return true
		}
	}
	return false
}
