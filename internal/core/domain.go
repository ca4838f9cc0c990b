package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Logical dataset keys. These are the stable names the view layer keys on;
// renaming one is a breaking API change.
const (
	DatasetAPSummary   = "apSummary"
	DatasetAPByVendor  = "apByVendor"
	DatasetARSummary   = "arSummary"
	DatasetARByClient  = "arByCustomer"
	DatasetAgingTrend  = "agingTrend"
	DatasetWIPSchedule = "wipSchedule"
	DatasetCashFlow    = "cashFlow"
)

// Source tells consumers where a dataset came from. The shape of the data is
// identical in all three cases so nothing downstream needs to branch on it.
type Source string

const (
	SourceLive  Source = "live"
	SourceMock  Source = "mock"
	SourceCache Source = "cache"
)

type (
	// Money is a fixed-point currency amount. All bucket sums and totals go
	// through decimal arithmetic; float64 is only produced at the display
	// boundary.
	Money struct {
		decimal.Decimal
	}

	// CellKind tags a normalized cell value.
	CellKind int

	// CellValue is the tagged result of normalizing one raw cell. Exactly one
	// of the payload fields is meaningful, selected by Kind.
	CellValue struct {
		Kind   CellKind
		Money  Money
		Number float64 // plain numbers; percents as fractions (0.35 for "35%")
		Text   string
	}

	// TransactionRow maps normalized column names to cell values.
	TransactionRow map[string]CellValue

	// SheetBlock is one vendor/customer/account section of a sheet: the rows
	// under a block header, plus the closing total row when one was seen.
	SheetBlock struct {
		Name  string
		Rows  []TransactionRow
		Total TransactionRow // nil when the block had no total row
	}

	// AgingBuckets holds amounts by time-since-due interval.
	AgingBuckets struct {
		Current Money
		B1_30   Money
		B31_60  Money
		B61_90  Money
		B90Plus Money
	}

	// EntitySummary is the per-vendor/per-customer rollup.
	EntitySummary struct {
		Name        string
		Buckets     AgingBuckets
		Total       Money
		HealthScore float64 // current / total, 0 when total is zero
		HighRisk    bool
	}

	// DatasetSummary is the portfolio-level rollup for one logical dataset.
	DatasetSummary struct {
		Dataset              string
		Source               Source
		Entities             []EntitySummary // sorted by total, descending
		Portfolio            AgingBuckets
		Total                Money
		DSO                  float64
		DPO                  float64
		CollectionEfficiency float64
		HHI                  float64
		TopShare             float64 // share of total held by the top N entities
		TopN                 int
		WIP                  []WIPProject // populated for the WIP schedule dataset only
	}

	// PortfolioSnapshot is everything one dashboard view needs, rebuilt from
	// scratch on every fetch cycle.
	PortfolioSnapshot struct {
		Portfolio string
		FetchedAt time.Time
		Datasets  map[string]DatasetSummary
	}
)

const (
	CellEmpty CellKind = iota
	CellMoney
	CellPercent
	CellNumber
	CellText
)

var (
	ErrHeaderNotFound = errors.New("header row not found")
	ErrEmptySheet     = errors.New("sheet has no data rows")
	ErrFetchFailed    = errors.New("sheet fetch failed")
	ErrUnknownDataset = errors.New("unknown dataset")
)

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return Money{decimal.Zero}
}

// MoneyFromFloat builds a Money from a float64, for fixture and test data.
func MoneyFromFloat(f float64) Money {
	return Money{decimal.NewFromFloat(f)}
}

// MoneyFromString parses an exact decimal string such as "74555.34".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// Plus returns m + n.
func (m Money) Plus(n Money) Money {
	return Money{m.Decimal.Add(n.Decimal)}
}

// Minus returns m - n.
func (m Money) Minus(n Money) Money {
	return Money{m.Decimal.Sub(n.Decimal)}
}

// Float64 returns the amount for display. Calculations stay in decimal.
func (m Money) Float64() float64 {
	f, _ := m.Decimal.Float64()
	return f
}

// ShareOf returns m/total as a float fraction, 0 when total is zero.
func (m Money) ShareOf(total Money) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := m.Decimal.Div(total.Decimal).Float64()
	return f
}

// Add accumulates other into b, bucket by bucket.
func (b *AgingBuckets) Add(other AgingBuckets) {
	b.Current = b.Current.Plus(other.Current)
	b.B1_30 = b.B1_30.Plus(other.B1_30)
	b.B31_60 = b.B31_60.Plus(other.B31_60)
	b.B61_90 = b.B61_90.Plus(other.B61_90)
	b.B90Plus = b.B90Plus.Plus(other.B90Plus)
}

// Total returns the sum across all buckets.
func (b AgingBuckets) Total() Money {
	return b.Current.Plus(b.B1_30).Plus(b.B31_60).Plus(b.B61_90).Plus(b.B90Plus)
}

// AgedShare returns the fraction of the total that sits past the given
// bucket boundary. days must be one of 0, 30, 60, 90; amounts aged beyond it
// count as aged.
func (b AgingBuckets) AgedShare(days int) float64 {
	total := b.Total()
	if total.IsZero() {
		return 0
	}
	aged := ZeroMoney()
	switch {
	case days <= 0:
		aged = b.B1_30.Plus(b.B31_60).Plus(b.B61_90).Plus(b.B90Plus)
	case days <= 30:
		aged = b.B31_60.Plus(b.B61_90).Plus(b.B90Plus)
	case days <= 60:
		aged = b.B61_90.Plus(b.B90Plus)
	default:
		aged = b.B90Plus
	}
	return aged.ShareOf(total)
}

// MoneyOr returns the money value of the named column, or fallback when the
// column is missing or not monetary.
func (r TransactionRow) MoneyOr(col string, fallback Money) Money {
	v, ok := r[col]
	if !ok {
		return fallback
	}
	switch v.Kind {
	case CellMoney:
		return v.Money
	case CellNumber:
		return MoneyFromFloat(v.Number)
	default:
		return fallback
	}
}

// TextOr returns the text value of the named column, or fallback.
func (r TransactionRow) TextOr(col string, fallback string) string {
	v, ok := r[col]
	if !ok || v.Kind != CellText {
		return fallback
	}
	return v.Text
}
