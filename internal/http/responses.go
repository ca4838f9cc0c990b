package http

import (
	"sort"
	"time"

	"finboard/internal/config"
	"finboard/internal/core"
)

// The JSON field names below are the stable contract the dashboard frontend
// keys on. Renaming one is a breaking change.

type bucketsResponse struct {
	Current float64 `json:"current"`
	B1_30   float64 `json:"b1_30"`
	B31_60  float64 `json:"b31_60"`
	B61_90  float64 `json:"b61_90"`
	B90Plus float64 `json:"b90_plus"`
}

type entityResponse struct {
	Name        string          `json:"name"`
	Buckets     bucketsResponse `json:"buckets"`
	Total       float64         `json:"total"`
	HealthScore float64         `json:"health_score"`
	HighRisk    bool            `json:"high_risk"`
}

type wipResponse struct {
	Name            string  `json:"name"`
	ContractValue   float64 `json:"contract_value"`
	BilledToDate    float64 `json:"billed_to_date"`
	CostToDate      float64 `json:"cost_to_date"`
	EstimatedCost   float64 `json:"estimated_cost"`
	PercentComplete float64 `json:"percent_complete"`
	EarnedRevenue   float64 `json:"earned_revenue"`
	OverUnder       float64 `json:"over_under"`
}

type datasetResponse struct {
	Dataset              string           `json:"dataset"`
	Source               string           `json:"source"`
	Total                float64          `json:"total"`
	Buckets              bucketsResponse  `json:"buckets"`
	Entities             []entityResponse `json:"entities"`
	DSO                  float64          `json:"dso"`
	DPO                  float64          `json:"dpo"`
	CollectionEfficiency float64          `json:"collection_efficiency"`
	HHI                  float64          `json:"hhi"`
	TopShare             float64          `json:"top_share"`
	TopN                 int              `json:"top_n"`
	WIP                  []wipResponse    `json:"wip,omitempty"`
}

type snapshotResponse struct {
	Portfolio string                     `json:"portfolio"`
	FetchedAt time.Time                  `json:"fetched_at"`
	Datasets  map[string]datasetResponse `json:"datasets"`
}

type portfolioResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Datasets []string `json:"datasets"`
}

func toBucketsResponse(b core.AgingBuckets) bucketsResponse {
	return bucketsResponse{
		Current: b.Current.Float64(),
		B1_30:   b.B1_30.Float64(),
		B31_60:  b.B31_60.Float64(),
		B61_90:  b.B61_90.Float64(),
		B90Plus: b.B90Plus.Float64(),
	}
}

func toDatasetResponse(s core.DatasetSummary) datasetResponse {
	resp := datasetResponse{
		Dataset:              s.Dataset,
		Source:               string(s.Source),
		Total:                s.Total.Float64(),
		Buckets:              toBucketsResponse(s.Portfolio),
		Entities:             make([]entityResponse, 0, len(s.Entities)),
		DSO:                  s.DSO,
		DPO:                  s.DPO,
		CollectionEfficiency: s.CollectionEfficiency,
		HHI:                  s.HHI,
		TopShare:             s.TopShare,
		TopN:                 s.TopN,
	}
	for _, e := range s.Entities {
		resp.Entities = append(resp.Entities, entityResponse{
			Name:        e.Name,
			Buckets:     toBucketsResponse(e.Buckets),
			Total:       e.Total.Float64(),
			HealthScore: e.HealthScore,
			HighRisk:    e.HighRisk,
		})
	}
	for _, p := range s.WIP {
		resp.WIP = append(resp.WIP, wipResponse{
			Name:            p.Name,
			ContractValue:   p.ContractValue.Float64(),
			BilledToDate:    p.BilledToDate.Float64(),
			CostToDate:      p.CostToDate.Float64(),
			EstimatedCost:   p.EstimatedCost.Float64(),
			PercentComplete: p.PercentComplete,
			EarnedRevenue:   p.EarnedRevenue.Float64(),
			OverUnder:       p.OverUnder.Float64(),
		})
	}
	return resp
}

func toSnapshotResponse(snap core.PortfolioSnapshot) snapshotResponse {
	resp := snapshotResponse{
		Portfolio: snap.Portfolio,
		FetchedAt: snap.FetchedAt,
		Datasets:  make(map[string]datasetResponse, len(snap.Datasets)),
	}
	for key, summary := range snap.Datasets {
		resp.Datasets[key] = toDatasetResponse(summary)
	}
	return resp
}

func toPortfolioResponse(p config.Portfolio) portfolioResponse {
	resp := portfolioResponse{ID: p.ID, Name: p.Name, Datasets: make([]string, 0, len(p.Tabs))}
	for dataset := range p.Tabs {
		resp.Datasets = append(resp.Datasets, dataset)
	}
	sort.Strings(resp.Datasets)
	return resp
}
