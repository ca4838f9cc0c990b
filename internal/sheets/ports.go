// Package sheets defines the ports for sheet data sources.
package sheets

import "context"

// TabRef identifies one tab of one spreadsheet.
type TabRef struct {
	SpreadsheetID string
	GID           string // tab identifier for export/gviz URLs
	Name          string // sheet name for API range reads
}

// Ports for outbound adapters.
type (
	// CSVFetcher returns the raw CSV export text of a tab.
	CSVFetcher interface {
		FetchCSV(ctx context.Context, tab TabRef) (string, error)
	}

	// RowsReader returns tokenized rows for a tab. Sources that never
	// produce raw CSV (the Sheets API, the gviz endpoint) implement this
	// directly.
	RowsReader interface {
		ReadRows(ctx context.Context, tab TabRef) ([][]string, error)
	}
)
