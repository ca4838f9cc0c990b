// Package google fetches sheet data from Google, through three routes: the
// public CSV export endpoint, the gviz JSON endpoint, and the authenticated
// Sheets API for spreadsheets that are not shared publicly.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"finboard/internal/core"
	ports "finboard/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultBaseURL = "https://docs.google.com"

type Client struct {
	httpClient *http.Client
	baseURL    string
	svc        *gsheet.Service // nil when no credentials are configured
}

// Ensure interface conformance
var (
	_ ports.CSVFetcher = (*Client)(nil)
	_ ports.RowsReader = (*Client)(nil)
)

// NewFromEnv creates a client. Credentials are optional: with
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS set, the Sheets API route is available for
// private spreadsheets; otherwise only the public export routes work.
func NewFromEnv(ctx context.Context) (*Client, error) {
	c := &Client{
		httpClient: newHTTPClient(),
		baseURL:    defaultBaseURL,
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		if !errors.Is(err, errNoCredentials) {
			return nil, err
		}
		slog.InfoContext(ctx, "No Google credentials configured, using public export endpoints only")
	} else {
		c.svc = svc
	}

	return c, nil
}

// NewClient builds a client against a custom base URL with the given HTTP
// client. Used by tests and by deployments that front docs.google.com with a
// proxy.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

var errNoCredentials = errors.New("no service account credentials configured")

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errNoCredentials
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// FetchCSV downloads the CSV export of one tab.
func (c *Client) FetchCSV(ctx context.Context, tab ports.TabRef) (string, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv&gid=%s",
		c.baseURL, tab.SpreadsheetID, tab.GID)
	body, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("csv export %s gid=%s: %w", tab.SpreadsheetID, tab.GID, err)
	}
	return string(body), nil
}

// ReadRows returns tokenized rows for a tab. When a Sheets service is
// configured and the tab has a sheet name, the API route is used; otherwise
// it falls back to the gviz endpoint, then the CSV export.
func (c *Client) ReadRows(ctx context.Context, tab ports.TabRef) ([][]string, error) {
	if c.svc != nil && tab.Name != "" {
		return c.readRowsAPI(ctx, tab)
	}
	rows, err := c.FetchGvizRows(ctx, tab)
	if err == nil {
		return rows, nil
	}
	slog.DebugContext(ctx, "Gviz fetch failed, falling back to CSV export",
		"spreadsheet", tab.SpreadsheetID, "gid", tab.GID, "error", err)
	adapter := ports.RowsFromCSV(c)
	return adapter.ReadRows(ctx, tab)
}

func (c *Client) readRowsAPI(ctx context.Context, tab ports.TabRef) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(tab.SpreadsheetID, tab.Name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", tab.SpreadsheetID, tab.Name, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rows = append(rows, toStrings(row))
	}
	return rows, nil
}

// FetchGvizRows downloads the gviz JSON table of one tab and flattens it to
// rows, header first.
func (c *Client) FetchGvizRows(ctx context.Context, tab ports.TabRef) ([][]string, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:json&gid=%s",
		c.baseURL, tab.SpreadsheetID, tab.GID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("gviz %s gid=%s: %w", tab.SpreadsheetID, tab.GID, err)
	}
	rows, err := ParseGvizPayload(body)
	if err != nil {
		return nil, fmt.Errorf("gviz %s gid=%s: %w", tab.SpreadsheetID, tab.GID, err)
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", core.ErrFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", core.ErrFetchFailed, err)
	}
	return body, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
