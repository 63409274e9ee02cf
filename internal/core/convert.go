package core

// convert.go handles the messy reality of editor-supplied spreadsheet cells:
// BOMs, Excel formula wrappers, stray whitespace, pipe-delimited lists, and
// the loose value typing of the vertical ASR format.

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// CleanCell normalizes a raw cell: trims whitespace, strips a UTF-8 BOM,
// and unwraps the Excel formula form ="value".
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) > 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

func normalizeHeader(col string) string {
	return strings.ToLower(CleanCell(col))
}

// SplitPipe splits a pipe-delimited cell into trimmed, non-empty parts.
func SplitPipe(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CoerceValue converts a raw ASR cell to its natural type:
// pipe-delimited text becomes a string list, all-digit text an int, text
// with a single decimal point a float, "true"/"false" (any case) a bool,
// and anything else stays a string.
func CoerceValue(raw string) any {
	s := CleanCell(raw)
	switch {
	case strings.Contains(s, "|"):
		return SplitPipe(s)
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	case intPattern.MatchString(s):
		n, err := strconv.Atoi(s)
		if err != nil {
			return s // out of int range, keep the text
		}
		return n
	case floatPattern.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return s
		}
		return f
	default:
		return s
	}
}

// parseBoolish accepts the usual spreadsheet booleans: true/false, yes/no,
// 1/0. Anything else reports ok=false.
func parseBoolish(s string) (val, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0", "":
		return false, s != ""
	}
	return false, false
}

// optionLabel returns the positional choice label: A, B, ... Z, AA, AB, ...
func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return string(rune('A'+i/26-1)) + string(rune('A'+i%26))
}

// countWords counts whitespace-delimited tokens.
func countWords(text string) int {
	return len(strings.Fields(text))
}

// cellAt returns the cleaned cell for a named column, or "" when the column
// is absent or the row is short.
func cellAt(row []string, idx HeaderIndex, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// intAt parses a named integer column; returns 0 when empty or absent.
// Schema validation has already rejected non-numeric values.
func intAt(row []string, idx HeaderIndex, name string) int {
	n, _ := strconv.Atoi(cellAt(row, idx, name))
	return n
}

// floatAt parses a named numeric column; returns 0 when empty or absent.
func floatAt(row []string, idx HeaderIndex, name string) float64 {
	f, _ := strconv.ParseFloat(cellAt(row, idx, name), 64)
	return f
}
