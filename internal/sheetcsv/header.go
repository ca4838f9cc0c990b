package sheetcsv

import (
	"strings"

	"finboard/internal/core"
)

// DefaultHeaderWindow bounds how deep into a sheet the header scan looks.
// Preambles (title, "As of" line, grand-total band) never run longer than
// this in practice.
const DefaultHeaderWindow = 15

// LocateHeader returns the index of the first row within the window whose
// cells, taken together, contain every marker substring (case-insensitive).
// Returns core.ErrHeaderNotFound when no row matches.
func LocateHeader(rows [][]string, markers []string, window int) (int, error) {
	if window <= 0 {
		window = DefaultHeaderWindow
	}
	if window > len(rows) {
		window = len(rows)
	}
	for i := 0; i < window; i++ {
		joined := strings.ToLower(strings.Join(rows[i], " "))
		found := true
		for _, m := range markers {
			if !strings.Contains(joined, strings.ToLower(m)) {
				found = false
				break
			}
		}
		if found {
			return i, nil
		}
	}
	return -1, core.ErrHeaderNotFound
}

// CanonicalColumn maps the header spellings seen across the sheets onto the
// stable column names the rest of the pipeline keys on. Unknown headers come
// back lowercased with spaces collapsed to underscores.
func CanonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case h == "current":
		return "current"
	case matchBucket(h, "1", "30") || h == "1 months" || h == "1 month":
		return "b1_30"
	case matchBucket(h, "31", "60") || h == "2 months":
		return "b31_60"
	case matchBucket(h, "61", "90") || h == "3 months":
		return "b61_90"
	case strings.HasPrefix(h, "90+") || strings.HasPrefix(h, "91") ||
		strings.HasPrefix(h, "over 90") || strings.HasPrefix(h, "> 90"):
		return "b90_plus"
	case strings.Contains(h, "total"):
		return "total"
	case strings.Contains(h, "vendor"):
		return "vendor"
	case strings.Contains(h, "customer") || strings.Contains(h, "client"):
		return "customer"
	case strings.Contains(h, "due date"):
		return "due_date"
	case h == "date" || strings.Contains(h, "txn date") || strings.Contains(h, "transaction date"):
		return "date"
	case strings.Contains(h, "transaction type") || h == "type":
		return "type"
	case strings.Contains(h, "amount"):
		return "amount"
	case strings.Contains(h, "debit"):
		return "debit"
	case strings.Contains(h, "credit"):
		return "credit"
	case strings.Contains(h, "balance"):
		return "balance"
	case strings.Contains(h, "memo") || strings.Contains(h, "description"):
		return "memo"
	case strings.Contains(h, "project") || strings.Contains(h, "job"):
		return "project"
	case strings.Contains(h, "contract"):
		return "contract_value"
	case strings.Contains(h, "billed"):
		return "billed_to_date"
	case strings.Contains(h, "estimated") || strings.Contains(h, "est. cost"):
		return "estimated_cost"
	case strings.Contains(h, "cost"):
		return "cost_to_date"
	case strings.Contains(h, "period") || strings.Contains(h, "month"):
		return "period"
	case strings.Contains(h, "category"):
		return "category"
	case strings.Contains(h, "class"):
		return "class"
	case h == "num" || h == "no." || strings.Contains(h, "number"):
		return "num"
	default:
		return strings.ReplaceAll(h, " ", "_")
	}
}

// matchBucket recognizes "1-30", "1 - 30", "1–30" style bucket headers.
func matchBucket(h, lo, hi string) bool {
	for _, sep := range []string{"-", " - ", "–", " to "} {
		if h == lo+sep+hi {
			return true
		}
	}
	return false
}

// CanonicalHeader applies CanonicalColumn across a header row.
func CanonicalHeader(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = CanonicalColumn(h)
	}
	return out
}
