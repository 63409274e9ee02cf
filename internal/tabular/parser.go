// Package tabular turns raw delimited text into a rectangular grid of
// strings, and back. It knows nothing about what the columns mean.
//
// The dialect is comma-delimited with double-quoted cells: quoted cells may
// contain commas, newlines, and doubled-quote escapes; unquoted cells are
// trimmed of surrounding whitespace. An input whose quote state never closes
// is rejected with ErrMalformedInput rather than auto-closed, since silent
// auto-close hides truncated uploads.
package tabular

import (
	"errors"
	"strings"
)

// ErrMalformedInput is returned when a quoted cell is never terminated.
var ErrMalformedInput = errors.New("tabular: unterminated quoted cell")

// Parse tokenizes text into rows of cells. The first row is conventionally
// the header, but Parse itself performs no semantic validation.
func Parse(text string) ([][]string, error) {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		quoted   bool // current cell started with a quote
		inQuotes bool // currently inside an open quote
	)

	flushCell := func() {
		v := cell.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		row = append(row, v)
		cell.Reset()
		quoted = false
	}
	flushRow := func() {
		flushCell()
		rows = append(rows, row)
		row = nil
	}

	i := 0
	for i < len(text) {
		c := text[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cell.WriteByte('"') // escaped quote
					i += 2
					continue
				}
				inQuotes = false
				i++
				continue
			}
			cell.WriteByte(c)
			i++
			continue
		}

		switch c {
		case '"':
			if cell.Len() == 0 && !quoted {
				quoted = true
				inQuotes = true
			} else {
				// Quote in the middle of an unquoted cell: literal.
				cell.WriteByte(c)
			}
			i++
		case ',':
			flushCell()
			i++
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i += 2
			} else {
				i++
			}
			flushRow()
		case '\n':
			i++
			flushRow()
		default:
			cell.WriteByte(c)
			i++
		}
	}

	if inQuotes {
		return nil, ErrMalformedInput
	}

	// Flush a final row that was not newline-terminated.
	if cell.Len() > 0 || quoted || len(row) > 0 {
		flushRow()
	}

	return rows, nil
}

// Serialize renders a grid back to delimited text. Cells containing the
// delimiter, quotes, newlines, or surrounding whitespace are quoted so that
// Parse(Serialize(rows)) round-trips exactly.
func Serialize(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCell(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func escapeCell(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") || s != strings.TrimSpace(s) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
