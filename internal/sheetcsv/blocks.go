package sheetcsv

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"finboard/internal/core"
)

// RowKind is the tagged classification of one data row. Every row gets
// exactly one kind from ClassifyRow; the segmenter's transitions key off it.
type RowKind int

const (
	RowSkip RowKind = iota
	RowTransaction
	RowBlockTotal
	RowBlockHeader
)

var (
	dateStartRe = regexp.MustCompile(`^\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)
	hyperlinkRe = regexp.MustCompile(`(?i)HYPERLINK\s*\(\s*"[^"]*"\s*,\s*"([^"]*)"\s*\)`)
)

// ClassifyRow inspects the first cell, in priority order: a leading date
// makes a transaction row, "total" makes a block total, any other cell with
// a letter in it opens a new block, everything else is skipped.
func ClassifyRow(row []string) RowKind {
	if len(row) == 0 {
		return RowSkip
	}
	first := strings.TrimSpace(row[0])
	if first == "" {
		return RowSkip
	}
	if dateStartRe.MatchString(first) {
		return RowTransaction
	}
	if strings.Contains(strings.ToLower(first), "total") {
		return RowBlockTotal
	}
	if strings.ContainsFunc(first, unicode.IsLetter) {
		return RowBlockHeader
	}
	return RowSkip
}

// CleanBlockName extracts the display text from a HYPERLINK("url","text")
// formula, returning the raw cell when no formula is present.
func CleanBlockName(cell string) string {
	cell = strings.TrimSpace(cell)
	if m := hyperlinkRe.FindStringSubmatch(cell); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimPrefix(cell, "=")
}

// Segment walks the data rows following the header and groups them into
// blocks. At most one block is open at a time; a transaction or total row
// arriving with no open block is logged and dropped.
func Segment(rows [][]string, header []string) []core.SheetBlock {
	cols := CanonicalHeader(header)

	var blocks []core.SheetBlock
	var open *core.SheetBlock

	closeOpen := func() {
		if open != nil {
			blocks = append(blocks, *open)
			open = nil
		}
	}

	for i, row := range rows {
		switch ClassifyRow(row) {
		case RowBlockHeader:
			closeOpen()
			open = &core.SheetBlock{Name: CleanBlockName(row[0])}
		case RowTransaction:
			if open == nil {
				slog.Debug("Transaction row outside any block, dropping", "row", i)
				continue
			}
			open.Rows = append(open.Rows, rowToTransaction(row, cols))
		case RowBlockTotal:
			if open == nil {
				slog.Debug("Total row outside any block, dropping", "row", i)
				continue
			}
			open.Total = rowToTransaction(row, cols)
			closeOpen()
		case RowSkip:
			// blank or unclassifiable
		}
	}
	closeOpen()

	return blocks
}

// rowToTransaction normalizes the cells of one row under the canonical
// column names. Cells beyond the header width are dropped; short rows just
// leave columns absent.
func rowToTransaction(row []string, cols []string) core.TransactionRow {
	tx := make(core.TransactionRow, len(cols))
	for i, col := range cols {
		if i >= len(row) {
			break
		}
		v := core.NormalizeCell(row[i])
		if v.Kind == core.CellEmpty {
			continue
		}
		tx[col] = v
	}
	return tx
}

// SummaryEntities reads a one-row-per-entity aging summary (the A/P and A/R
// summary tabs): each data row is an entity with bucket columns, and the
// sheet-level "Total" row is excluded. nameCol is the canonical column
// holding the entity name; for sheets whose name column header is the entity
// type itself ("Vendor", "Customer") pass that canonical name.
func SummaryEntities(rows [][]string, header []string, nameCol string, cfg core.AggregateConfig) []core.EntitySummary {
	cols := CanonicalHeader(header)
	nameIdx := 0
	for i, c := range cols {
		if c == nameCol {
			nameIdx = i
			break
		}
	}

	var entities []core.EntitySummary
	for _, row := range rows {
		if nameIdx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" || strings.Contains(strings.ToLower(name), "total") {
			continue
		}
		tx := rowToTransaction(row, cols)
		buckets := core.AgingBuckets{
			Current: tx.MoneyOr("current", core.ZeroMoney()),
			B1_30:   tx.MoneyOr("b1_30", core.ZeroMoney()),
			B31_60:  tx.MoneyOr("b31_60", core.ZeroMoney()),
			B61_90:  tx.MoneyOr("b61_90", core.ZeroMoney()),
			B90Plus: tx.MoneyOr("b90_plus", core.ZeroMoney()),
		}
		entities = append(entities, core.NewEntitySummary(CleanBlockName(name), buckets, cfg))
	}
	return entities
}
