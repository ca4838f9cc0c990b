package config

import (
	"fmt"
	"os"
	"strings"

	"finboard/internal/core"

	yaml "gopkg.in/yaml.v2"
)

// TabSpec points one dataset at a spreadsheet tab.
type TabSpec struct {
	GID          string `yaml:"gid"`
	Name         string `yaml:"name"`
	HeaderWindow int    `yaml:"header_window"` // 0 means the default scan window
}

// Portfolio is one holding-company entity and its sheet layout.
type Portfolio struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	SpreadsheetID string             `yaml:"spreadsheet_id"`
	PeriodRevenue float64            `yaml:"period_revenue"` // credit sales for the DSO window
	PeriodCOGS    float64            `yaml:"period_cogs"`    // purchases for the DPO window
	Tabs          map[string]TabSpec `yaml:"tabs"`           // dataset key -> tab
}

// Registry is the static portfolio -> spreadsheet mapping. It is read-only
// input; nothing in the pipeline mutates it.
type Registry struct {
	Portfolios []Portfolio `yaml:"portfolios"`
}

var knownDatasets = map[string]bool{
	core.DatasetAPSummary:   true,
	core.DatasetAPByVendor:  true,
	core.DatasetARSummary:   true,
	core.DatasetARByClient:  true,
	core.DatasetAgingTrend:  true,
	core.DatasetWIPSchedule: true,
	core.DatasetCashFlow:    true,
}

// LoadRegistry reads and validates the YAML portfolio file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates registry YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse portfolio file: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Registry) validate() error {
	var errs []string
	seen := map[string]bool{}
	for i, p := range r.Portfolios {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("portfolio %d: missing id", i))
			continue
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Sprintf("portfolio %q: duplicate id", p.ID))
		}
		seen[p.ID] = true
		if p.SpreadsheetID == "" {
			errs = append(errs, fmt.Sprintf("portfolio %q: missing spreadsheet_id", p.ID))
		}
		if len(p.Tabs) == 0 {
			errs = append(errs, fmt.Sprintf("portfolio %q: no tabs configured", p.ID))
		}
		for dataset, tab := range p.Tabs {
			if !knownDatasets[dataset] {
				errs = append(errs, fmt.Sprintf("portfolio %q: unknown dataset %q", p.ID, dataset))
			}
			if tab.GID == "" && tab.Name == "" {
				errs = append(errs, fmt.Sprintf("portfolio %q: tab %q needs a gid or a name", p.ID, dataset))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("portfolio registry invalid:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Get returns the portfolio with the given id.
func (r *Registry) Get(id string) (Portfolio, bool) {
	for _, p := range r.Portfolios {
		if p.ID == id {
			return p, true
		}
	}
	return Portfolio{}, false
}

// AggregateConfig builds the aggregation knobs for one portfolio, merging
// the service-level threshold configuration with the portfolio's period
// figures.
func (p Portfolio) AggregateConfig(base *Config) core.AggregateConfig {
	cfg := core.AggregateConfig{}
	if base != nil {
		cfg.RiskAgedShare = base.RiskAgedShare
		cfg.TopN = base.TopN
	}
	if p.PeriodRevenue > 0 {
		cfg.PeriodRevenue = core.MoneyFromFloat(p.PeriodRevenue)
	}
	if p.PeriodCOGS > 0 {
		cfg.PeriodCOGS = core.MoneyFromFloat(p.PeriodCOGS)
	}
	return cfg.Normalize()
}
