package sheets

import (
	"context"

	"finboard/internal/sheetcsv"
)

type csvRows struct {
	fetcher CSVFetcher
}

// RowsFromCSV adapts a raw CSV fetcher into a RowsReader by tokenizing the
// export text.
func RowsFromCSV(f CSVFetcher) RowsReader {
	return csvRows{fetcher: f}
}

func (c csvRows) ReadRows(ctx context.Context, tab TabRef) ([][]string, error) {
	text, err := c.fetcher.FetchCSV(ctx, tab)
	if err != nil {
		return nil, err
	}
	return sheetcsv.Tokenize(text), nil
}
