package core

import (
	"sort"
)

// AggregateConfig carries the aggregation thresholds. Zero values fall back
// to defaults via Normalize.
type AggregateConfig struct {
	// PeriodDays is the window for DSO/DPO, default 30.
	PeriodDays int

	// PeriodRevenue is credit sales for the period; zero disables DSO.
	PeriodRevenue Money

	// PeriodCOGS is purchases/cost of goods for the period; zero disables DPO.
	PeriodCOGS Money

	// RiskAgedDays is the aging boundary beyond which amounts count against
	// the risk cutoff, default 30.
	RiskAgedDays int

	// RiskAgedShare marks an entity high risk when its aged share exceeds
	// this cutoff, default 0.35.
	RiskAgedShare float64

	// TopN is how many entities feed the top-share concentration figure,
	// default 5.
	TopN int
}

// Normalize fills unset fields with defaults.
func (c AggregateConfig) Normalize() AggregateConfig {
	if c.PeriodDays <= 0 {
		c.PeriodDays = 30
	}
	if c.RiskAgedDays <= 0 {
		c.RiskAgedDays = 30
	}
	if c.RiskAgedShare <= 0 {
		c.RiskAgedShare = 0.35
	}
	if c.TopN <= 0 {
		c.TopN = 5
	}
	return c
}

// NewEntitySummary derives the per-entity figures from its aging buckets.
func NewEntitySummary(name string, buckets AgingBuckets, cfg AggregateConfig) EntitySummary {
	cfg = cfg.Normalize()
	total := buckets.Total()
	return EntitySummary{
		Name:        name,
		Buckets:     buckets,
		Total:       total,
		HealthScore: buckets.Current.ShareOf(total),
		HighRisk:    buckets.AgedShare(cfg.RiskAgedDays) > cfg.RiskAgedShare,
	}
}

// Aggregate rolls a set of entity summaries up into one dataset summary.
//
// Entities are sorted descending by total; the sort is stable so ties keep
// input order and repeated runs over the same input produce identical output.
// Every ratio with a zero denominator comes back as 0.
func Aggregate(dataset string, entities []EntitySummary, cfg AggregateConfig) DatasetSummary {
	cfg = cfg.Normalize()

	sorted := make([]EntitySummary, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total.GreaterThan(sorted[j].Total.Decimal)
	})

	var portfolio AgingBuckets
	for _, e := range sorted {
		portfolio.Add(e.Buckets)
	}
	total := portfolio.Total()

	var hhi float64
	topTotal := ZeroMoney()
	for i, e := range sorted {
		share := e.Total.ShareOf(total)
		hhi += share * share
		if i < cfg.TopN {
			topTotal = topTotal.Plus(e.Total)
		}
	}

	return DatasetSummary{
		Dataset:              dataset,
		Source:               SourceLive,
		Entities:             sorted,
		Portfolio:            portfolio,
		Total:                total,
		DSO:                  daysOutstanding(total, cfg.PeriodRevenue, cfg.PeriodDays),
		DPO:                  daysOutstanding(total, cfg.PeriodCOGS, cfg.PeriodDays),
		CollectionEfficiency: portfolio.Current.ShareOf(total),
		HHI:                  hhi,
		TopShare:             topTotal.ShareOf(total),
		TopN:                 cfg.TopN,
	}
}

// daysOutstanding is (outstanding / period flow) x period days, the standard
// DSO/DPO definition. 0 when the period flow is unknown or zero.
func daysOutstanding(outstanding, periodFlow Money, periodDays int) float64 {
	if periodFlow.IsZero() {
		return 0
	}
	return outstanding.ShareOf(periodFlow) * float64(periodDays)
}

// WIPProject is one row of a work-in-progress schedule with its derived
// billing position.
type WIPProject struct {
	Name            string
	ContractValue   Money
	BilledToDate    Money
	CostToDate      Money
	EstimatedCost   Money
	PercentComplete float64
	EarnedRevenue   Money
	OverUnder       Money // positive = overbilled, negative = underbilled
}

// ComputeWIP fills the derived fields from the raw ones using the
// cost-to-cost method: percent complete is cost to date over estimated cost,
// earned revenue is that fraction of contract value, and over/under billing
// is billings beyond earnings.
func ComputeWIP(p WIPProject) WIPProject {
	if !p.EstimatedCost.IsZero() {
		p.PercentComplete = p.CostToDate.ShareOf(p.EstimatedCost)
		if p.PercentComplete > 1 {
			p.PercentComplete = 1
		}
	}
	earned := p.ContractValue.Decimal.Mul(MoneyFromFloat(p.PercentComplete).Decimal)
	p.EarnedRevenue = Money{earned.Round(2)}
	p.OverUnder = p.BilledToDate.Minus(p.EarnedRevenue)
	return p
}
