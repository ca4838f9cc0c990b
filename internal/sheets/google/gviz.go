package google

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// The gviz endpoint wraps its JSON in a JS callback:
//
//	/*O_o*/
//	google.visualization.Query.setResponse({...});
//
// The wrapper has to be stripped before decoding.
var gvizWrapperRe = regexp.MustCompile(`(?s)google\.visualization\.Query\.setResponse\((.*)\);?\s*$`)

type gvizResponse struct {
	Status string `json:"status"`
	Table  struct {
		Cols []struct {
			Label string `json:"label"`
			ID    string `json:"id"`
		} `json:"cols"`
		Rows []struct {
			C []*gvizCell `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

type gvizCell struct {
	V interface{} `json:"v"` // raw value: number, string, bool or null
	F string      `json:"f"` // formatted value as the sheet displays it
}

// ParseGvizPayload strips the callback wrapper, decodes the table and
// flattens it into rows with the column labels as the first row.
func ParseGvizPayload(body []byte) ([][]string, error) {
	m := gvizWrapperRe.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("gviz payload: callback wrapper not found")
	}
	var resp gvizResponse
	if err := json.Unmarshal(m[1], &resp); err != nil {
		return nil, fmt.Errorf("gviz payload: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("gviz payload: query returned error status")
	}

	header := make([]string, len(resp.Table.Cols))
	for i, col := range resp.Table.Cols {
		if col.Label != "" {
			header[i] = col.Label
		} else {
			header[i] = col.ID
		}
	}

	rows := make([][]string, 0, len(resp.Table.Rows)+1)
	rows = append(rows, header)
	for _, r := range resp.Table.Rows {
		row := make([]string, len(r.C))
		for i, cell := range r.C {
			row[i] = cellString(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellString prefers the formatted value, which carries the $/%-formatting
// the normalizer keys on; the raw value is the fallback.
func cellString(cell *gvizCell) string {
	if cell == nil {
		return ""
	}
	if cell.F != "" {
		return cell.F
	}
	switch v := cell.V.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
