// Package sheetcsv parses Google Sheets CSV exports into structured blocks.
//
// The exports this package sees are not strict RFC 4180: sheets carry
// variable-length preambles, repeated vendor sections, hyperlink formulas and
// the occasional bare quote. The tokenizer is therefore best-effort and never
// fails; downstream stages treat sparse or missing cells as empty strings.
package sheetcsv

import "strings"

// Tokenize splits raw CSV text into rows of trimmed cells.
//
// A double quote toggles quoted state; "" inside quotes emits one literal
// quote. Commas and line endings inside quotes are literal. Blank lines are
// dropped, and a trailing row without a final newline is still emitted.
func Tokenize(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	flushField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
	}
	flushRow := func() {
		if field.Len() == 0 && len(row) == 0 {
			return
		}
		flushField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			flushField()
		case (ch == '\n' || ch == '\r') && !inQuotes:
			flushRow()
		default:
			field.WriteByte(ch)
		}
	}
	flushRow()

	return rows
}
