package sheetcsv

import (
	"strings"
	"time"

	"finboard/internal/core"
)

var sheetDateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"2006-01-02",
}

// ParseSheetDate parses the date spellings the exports use. The two-digit
// year forms follow Go's 06 pivot (69 and below are 20xx).
func ParseSheetDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EntitiesFromBlocks converts transaction-detail blocks into per-entity aging
// summaries as of the given date. Each transaction's open balance (falling
// back to amount, then debit minus credit) lands in the bucket matching its
// days past due; rows with no parseable due date count as current.
func EntitiesFromBlocks(blocks []core.SheetBlock, asOf time.Time, cfg core.AggregateConfig) []core.EntitySummary {
	entities := make([]core.EntitySummary, 0, len(blocks))
	for _, b := range blocks {
		var buckets core.AgingBuckets
		for _, tx := range b.Rows {
			amount := txnAmount(tx)
			due, ok := ParseSheetDate(tx.TextOr("due_date", ""))
			overdue := 0
			if ok {
				overdue = int(asOf.Sub(due).Hours() / 24)
			}
			switch {
			case overdue <= 0:
				buckets.Current = buckets.Current.Plus(amount)
			case overdue <= 30:
				buckets.B1_30 = buckets.B1_30.Plus(amount)
			case overdue <= 60:
				buckets.B31_60 = buckets.B31_60.Plus(amount)
			case overdue <= 90:
				buckets.B61_90 = buckets.B61_90.Plus(amount)
			default:
				buckets.B90Plus = buckets.B90Plus.Plus(amount)
			}
		}
		entities = append(entities, core.NewEntitySummary(b.Name, buckets, cfg))
	}
	return entities
}

// txnAmount picks the open balance when present, then amount, then
// debit minus credit. Amount is not reconciled against debit-credit.
func txnAmount(tx core.TransactionRow) core.Money {
	if v, ok := tx["balance"]; ok && (v.Kind == core.CellMoney || v.Kind == core.CellNumber) {
		return tx.MoneyOr("balance", core.ZeroMoney())
	}
	if v, ok := tx["amount"]; ok && (v.Kind == core.CellMoney || v.Kind == core.CellNumber) {
		return tx.MoneyOr("amount", core.ZeroMoney())
	}
	debit := tx.MoneyOr("debit", core.ZeroMoney())
	credit := tx.MoneyOr("credit", core.ZeroMoney())
	return debit.Minus(credit)
}
