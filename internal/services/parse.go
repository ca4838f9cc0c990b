package services

import (
	"fmt"
	"strings"
	"time"

	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/sheetcsv"
)

// datasetSpec drives parsing for one logical dataset: which header markers
// identify the real header row, and which shape the data rows take.
type datasetSpec struct {
	markers []string
	mode    parseMode
	nameCol string
}

type parseMode int

const (
	modeSummary parseMode = iota // one row per entity with aging bucket columns
	modeBlocks                   // repeating vendor/customer blocks of transactions
	modeAmounts                  // one row per entity with a single amount column
	modeWIP                      // work-in-progress schedule
)

var datasetSpecs = map[string]datasetSpec{
	core.DatasetAPSummary:   {markers: []string{"vendor", "current", "total"}, mode: modeSummary, nameCol: "vendor"},
	core.DatasetARSummary:   {markers: []string{"customer", "current", "total"}, mode: modeSummary, nameCol: "customer"},
	core.DatasetAPByVendor:  {markers: []string{"date", "amount"}, mode: modeBlocks},
	core.DatasetARByClient:  {markers: []string{"date", "amount"}, mode: modeBlocks},
	core.DatasetAgingTrend:  {markers: []string{"month", "current"}, mode: modeSummary, nameCol: "period"},
	core.DatasetCashFlow:    {markers: []string{"category", "amount"}, mode: modeAmounts, nameCol: "category"},
	core.DatasetWIPSchedule: {markers: []string{"project", "contract"}, mode: modeWIP},
}

// parseDataset runs the locate-header / segment / normalize / aggregate
// stages over tokenized rows for one dataset. Every failure comes back as an
// error value the orchestrator matches on; nothing here panics or aborts
// sibling sheets.
func parseDataset(rows [][]string, dataset string, tab config.TabSpec, cfg core.AggregateConfig, asOf time.Time) (core.DatasetSummary, error) {
	spec, ok := datasetSpecs[dataset]
	if !ok {
		return core.DatasetSummary{}, fmt.Errorf("%w: %s", core.ErrUnknownDataset, dataset)
	}

	headerIdx, err := sheetcsv.LocateHeader(rows, spec.markers, tab.HeaderWindow)
	if err != nil {
		return core.DatasetSummary{}, fmt.Errorf("dataset %s: %w", dataset, err)
	}
	header := rows[headerIdx]
	data := rows[headerIdx+1:]

	var summary core.DatasetSummary
	switch spec.mode {
	case modeSummary:
		entities := sheetcsv.SummaryEntities(data, header, spec.nameCol, cfg)
		if len(entities) == 0 {
			return core.DatasetSummary{}, fmt.Errorf("dataset %s: %w", dataset, core.ErrEmptySheet)
		}
		summary = core.Aggregate(dataset, entities, cfg)

	case modeBlocks:
		blocks := sheetcsv.Segment(data, header)
		if len(blocks) == 0 {
			return core.DatasetSummary{}, fmt.Errorf("dataset %s: %w", dataset, core.ErrEmptySheet)
		}
		summary = core.Aggregate(dataset, sheetcsv.EntitiesFromBlocks(blocks, asOf, cfg), cfg)

	case modeAmounts:
		entities := amountEntities(data, header, spec.nameCol, cfg)
		if len(entities) == 0 {
			return core.DatasetSummary{}, fmt.Errorf("dataset %s: %w", dataset, core.ErrEmptySheet)
		}
		summary = core.Aggregate(dataset, entities, cfg)

	case modeWIP:
		projects := wipProjects(data, header)
		if len(projects) == 0 {
			return core.DatasetSummary{}, fmt.Errorf("dataset %s: %w", dataset, core.ErrEmptySheet)
		}
		summary = core.Aggregate(dataset, nil, cfg)
		summary.WIP = projects
	}

	summary.Source = core.SourceLive
	return summary, nil
}

// amountEntities reads one-amount-per-row sheets (cash flow categories).
// The amount lands in the current bucket; aging does not apply.
func amountEntities(rows [][]string, header []string, nameCol string, cfg core.AggregateConfig) []core.EntitySummary {
	cols := sheetcsv.CanonicalHeader(header)
	nameIdx, amountIdx := -1, -1
	for i, c := range cols {
		switch c {
		case nameCol:
			nameIdx = i
		case "amount":
			amountIdx = i
		}
	}
	if nameIdx < 0 || amountIdx < 0 {
		return nil
	}

	var entities []core.EntitySummary
	for _, row := range rows {
		if nameIdx >= len(row) || amountIdx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" || strings.Contains(strings.ToLower(name), "total") {
			continue
		}
		amount := core.NormalizeMoney(row[amountIdx], core.ZeroMoney())
		entities = append(entities, core.NewEntitySummary(name, core.AgingBuckets{Current: amount}, cfg))
	}
	return entities
}

// wipProjects reads a WIP schedule row per project.
func wipProjects(rows [][]string, header []string) []core.WIPProject {
	cols := sheetcsv.CanonicalHeader(header)
	idx := map[string]int{}
	for i, c := range cols {
		idx[c] = i
	}
	get := func(row []string, col string) core.Money {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return core.ZeroMoney()
		}
		return core.NormalizeMoney(row[i], core.ZeroMoney())
	}

	nameIdx, ok := idx["project"]
	if !ok {
		return nil
	}

	var projects []core.WIPProject
	for _, row := range rows {
		if nameIdx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" || strings.Contains(strings.ToLower(name), "total") {
			continue
		}
		projects = append(projects, core.ComputeWIP(core.WIPProject{
			Name:          sheetcsv.CleanBlockName(name),
			ContractValue: get(row, "contract_value"),
			BilledToDate:  get(row, "billed_to_date"),
			CostToDate:    get(row, "cost_to_date"),
			EstimatedCost: get(row, "estimated_cost"),
		}))
	}
	return projects
}
