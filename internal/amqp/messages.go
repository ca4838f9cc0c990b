package amqp

import (
	"encoding/json"
	"time"

	"finboard/internal/core"
)

// SnapshotRefreshedMessage announces that a portfolio snapshot was rebuilt.
// It carries identifiers and source tallies, not data; consumers re-read the
// snapshot through the dashboard service.
type SnapshotRefreshedMessage struct {
	Portfolio    string         `json:"portfolio"`
	Datasets     []string       `json:"datasets"`
	SourceCounts map[string]int `json:"source_counts"` // live/mock/cache -> dataset count
	FetchedAt    time.Time      `json:"fetched_at"`
}

// NewSnapshotRefreshedMessage summarizes a snapshot into a refresh event.
func NewSnapshotRefreshedMessage(snapshot core.PortfolioSnapshot) *SnapshotRefreshedMessage {
	msg := &SnapshotRefreshedMessage{
		Portfolio:    snapshot.Portfolio,
		Datasets:     make([]string, 0, len(snapshot.Datasets)),
		SourceCounts: make(map[string]int, 3),
		FetchedAt:    snapshot.FetchedAt,
	}
	for dataset, summary := range snapshot.Datasets {
		msg.Datasets = append(msg.Datasets, dataset)
		msg.SourceCounts[string(summary.Source)]++
	}
	return msg
}

func (m *SnapshotRefreshedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotRefreshedMessageFromJSON(data []byte) (*SnapshotRefreshedMessage, error) {
	var msg SnapshotRefreshedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
