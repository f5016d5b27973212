/*
Package sheet reads the comma-separated text exported by a spreadsheet.

PURPOSE:
  Splits raw export text into rows of cells. It knows nothing about what
  the columns mean; see package availability for that.

DIALECT:
  - Comma separates fields; LF, CR and CRLF each end a row
  - A double quote toggles quoted mode anywhere in a field; inside quotes,
    commas and line breaks are literal and "" is one quote character
  - Blank lines are skipped; a final row without a terminator is kept
  - Unterminated quotes never fail: the rest of the text joins the cell

  This is deliberately more forgiving than encoding/csv, which rejects
  bare quotes and keeps blank lines as records under LazyQuotes.
*/
package sheet

import "strings"

// Parse splits text into rows. It never fails.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	endRow := func() {
		if cell.Len() == 0 && len(row) == 0 {
			return
		}
		row = append(row, cell.String())
		rows = append(rows, row)
		row = nil
		cell.Reset()
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				cell.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			row = append(row, cell.String())
			cell.Reset()
		case (c == '\r' || c == '\n') && !inQuotes:
			endRow()
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			cell.WriteByte(c)
		}
	}
	endRow()

	return rows
}

// Header returns the first row, or nil for empty input.
func Header(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// Cell returns rows[r][c], or "" when the row is short.
func Cell(row []string, c int) string {
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}
