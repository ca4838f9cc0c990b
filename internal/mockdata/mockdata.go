// Package mockdata generates the fallback datasets used when a sheet cannot
// be fetched or parsed. The output goes through the same aggregator as live
// parses, so the shape seen downstream is identical and nothing ever
// branches on real-versus-mock.
package mockdata

import (
	"finboard/internal/core"
)

// Generator produces deterministic fallback datasets.
type Generator struct {
	cfg core.AggregateConfig
}

func New(cfg core.AggregateConfig) *Generator {
	return &Generator{cfg: cfg.Normalize()}
}

// Dataset returns the mock summary for a dataset key, or ErrUnknownDataset.
func (g *Generator) Dataset(key string) (core.DatasetSummary, error) {
	var entities []core.EntitySummary
	switch key {
	case core.DatasetAPSummary, core.DatasetAPByVendor:
		entities = g.entities([]seed{
			{"Acme Brick & Supply", 74555.34, 12400.00, 0, 0, 0},
			{"Action Gypsum Supply", 4894.13, 0, 0, 0, 0},
			{"Lone Star Concrete", 31200.50, 8200.00, 4100.00, 0, 0},
			{"Gulf Coast Electric", 18750.00, 0, 0, 2200.00, 910.25},
			{"Hill Country Lumber", 9925.75, 3100.00, 0, 0, 0},
		})
	case core.DatasetARSummary, core.DatasetARByClient:
		entities = g.entities([]seed{
			{"Meridian Development", 245800.00, 42000.00, 0, 0, 0},
			{"Brazos Valley ISD", 118300.22, 0, 15600.00, 0, 0},
			{"Port Authority Annex", 86450.00, 12800.00, 0, 9400.00, 0},
			{"Caldwell Medical Plaza", 54200.10, 0, 0, 0, 21750.88},
		})
	case core.DatasetAgingTrend:
		entities = g.entities([]seed{
			{"2024-10", 310200.00, 48100.00, 22400.00, 8100.00, 12300.00},
			{"2024-11", 328400.00, 51900.00, 18200.00, 9800.00, 11100.00},
			{"2024-12", 301750.00, 44800.00, 20100.00, 7600.00, 13400.00},
		})
	case core.DatasetCashFlow:
		entities = g.entities([]seed{
			{"Contract Receipts", 412000.00, 0, 0, 0, 0},
			{"Vendor Payments", 286000.00, 0, 0, 0, 0},
			{"Payroll", 121500.00, 0, 0, 0, 0},
			{"Equipment & Leases", 86000.00, 0, 0, 0, 0},
		})
	case core.DatasetWIPSchedule:
		s := core.Aggregate(key, nil, g.cfg)
		s.Source = core.SourceMock
		s.WIP = g.wipProjects()
		return s, nil
	default:
		return core.DatasetSummary{}, core.ErrUnknownDataset
	}

	s := core.Aggregate(key, entities, g.cfg)
	s.Source = core.SourceMock
	return s, nil
}

type seed struct {
	name                             string
	current, b30, b60, b90, b90plus float64
}

func (g *Generator) entities(seeds []seed) []core.EntitySummary {
	out := make([]core.EntitySummary, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, core.NewEntitySummary(s.name, core.AgingBuckets{
			Current: core.MoneyFromFloat(s.current),
			B1_30:   core.MoneyFromFloat(s.b30),
			B31_60:  core.MoneyFromFloat(s.b60),
			B61_90:  core.MoneyFromFloat(s.b90),
			B90Plus: core.MoneyFromFloat(s.b90plus),
		}, g.cfg))
	}
	return out
}

func (g *Generator) wipProjects() []core.WIPProject {
	projects := []core.WIPProject{
		{
			Name:          "Riverside Treatment Plant",
			ContractValue: core.MoneyFromFloat(4_200_000),
			BilledToDate:  core.MoneyFromFloat(2_700_000),
			CostToDate:    core.MoneyFromFloat(2_100_000),
			EstimatedCost: core.MoneyFromFloat(3_500_000),
		},
		{
			Name:          "Highway 71 Overpass",
			ContractValue: core.MoneyFromFloat(2_850_000),
			BilledToDate:  core.MoneyFromFloat(900_000),
			CostToDate:    core.MoneyFromFloat(1_050_000),
			EstimatedCost: core.MoneyFromFloat(2_400_000),
		},
		{
			Name:          "Caldwell Clinic Buildout",
			ContractValue: core.MoneyFromFloat(1_150_000),
			BilledToDate:  core.MoneyFromFloat(1_150_000),
			CostToDate:    core.MoneyFromFloat(980_000),
			EstimatedCost: core.MoneyFromFloat(995_000),
		},
	}
	for i := range projects {
		projects[i] = core.ComputeWIP(projects[i])
	}
	return projects
}
