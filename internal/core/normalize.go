// Package core holds the domain types and cell normalization for the KPI
// pipeline.
//
// This file converts heterogeneous textual sheet values (currency with $ and
// thousands separators, parenthesised negatives, percents, plain numbers)
// into tagged CellValues. Normalization never fails: anything that is not a
// recognized numeric shape comes back as text.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var plainNumberRe = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// NormalizeCell converts one raw cell into a tagged value.
//
// Rules, in order:
//  1. blank -> CellEmpty
//  2. contains '$' -> currency; "(1,234.56)" style is negative
//  3. contains '%' -> percent, returned as a fraction (e.g. "35%" -> 0.35)
//  4. plain signed decimal after dropping thousands separators -> number
//  5. anything else -> trimmed text (memo, name, date string)
func NormalizeCell(raw string) CellValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return CellValue{Kind: CellEmpty}
	}

	if strings.Contains(s, "$") {
		if m, ok := parseCurrency(s); ok {
			return CellValue{Kind: CellMoney, Money: m}
		}
		return CellValue{Kind: CellText, Text: s}
	}

	if strings.Contains(s, "%") {
		cleaned := strings.ReplaceAll(strings.TrimSpace(strings.ReplaceAll(s, "%", "")), ",", "")
		if d, err := decimal.NewFromString(cleaned); err == nil {
			f, _ := d.Div(decimal.NewFromInt(100)).Float64()
			return CellValue{Kind: CellPercent, Number: f}
		}
		return CellValue{Kind: CellText, Text: s}
	}

	cleaned := strings.ReplaceAll(s, ",", "")
	if plainNumberRe.MatchString(cleaned) {
		if d, err := decimal.NewFromString(cleaned); err == nil {
			f, _ := d.Float64()
			return CellValue{Kind: CellNumber, Number: f}
		}
	}

	return CellValue{Kind: CellText, Text: s}
}

// NormalizeMoney coerces a raw cell to Money, returning fallback for blanks
// and unparseable text. Callers that need "missing means zero" pass
// ZeroMoney().
func NormalizeMoney(raw string, fallback Money) Money {
	v := NormalizeCell(raw)
	switch v.Kind {
	case CellMoney:
		return v.Money
	case CellNumber:
		return MoneyFromFloat(v.Number)
	default:
		return fallback
	}
}

// parseCurrency handles "$1,234.56", "-$12.00", "$(1,234.56)" and "($12)".
func parseCurrency(s string) (Money, bool) {
	cleaned := strings.ReplaceAll(s, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
		cleaned = strings.TrimSpace(cleaned)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, false
	}
	if negative {
		d = d.Neg()
	}
	return Money{d}, true
}
