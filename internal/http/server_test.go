package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/core"
)

type fakeDashboard struct {
	summary    core.DatasetSummary
	snapshot   core.PortfolioSnapshot
	err        error
	invalidated []string
	lastForce  bool
}

func (f *fakeDashboard) Dataset(ctx context.Context, portfolioID, dataset string, force bool) (core.DatasetSummary, error) {
	f.lastForce = force
	if f.err != nil {
		return core.DatasetSummary{}, f.err
	}
	s := f.summary
	s.Dataset = dataset
	return s, nil
}

func (f *fakeDashboard) Snapshot(ctx context.Context, portfolioID string, force bool) (core.PortfolioSnapshot, error) {
	f.lastForce = force
	if f.err != nil {
		return core.PortfolioSnapshot{}, f.err
	}
	return f.snapshot, nil
}

func (f *fakeDashboard) Invalidate(portfolioID string) {
	f.invalidated = append(f.invalidated, portfolioID)
}

func (f *fakeDashboard) Portfolios() []config.Portfolio {
	return []config.Portfolio{{
		ID:   "hargrove",
		Name: "Hargrove Holdings",
		Tabs: map[string]config.TabSpec{core.DatasetAPSummary: {GID: "0"}},
	}}
}

type fakePublisher struct {
	published []*amqp.SnapshotRefreshedMessage
	err       error
}

func (f *fakePublisher) PublishSnapshotRefreshed(ctx context.Context, msg *amqp.SnapshotRefreshedMessage) error {
	f.published = append(f.published, msg)
	return f.err
}

func testSummary() core.DatasetSummary {
	return core.DatasetSummary{
		Dataset: core.DatasetAPSummary,
		Source:  core.SourceLive,
		Total:   core.MoneyFromFloat(79449.47),
		Portfolio: core.AgingBuckets{
			Current: core.MoneyFromFloat(79449.47),
		},
		Entities: []core.EntitySummary{{
			Name:  "Acme Brick",
			Total: core.MoneyFromFloat(74555.34),
		}},
		DSO: 12.5,
		HHI: 0.88,
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := NewServer(":0", &fakeDashboard{}, nil, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}
}

type fakeStats struct {
	hits, misses uint64
	entries      int
}

func (f *fakeStats) Stats() (uint64, uint64) { return f.hits, f.misses }
func (f *fakeStats) Size() int               { return f.entries }

func TestReadyEndpoint_ReportsCacheStats(t *testing.T) {
	srv := NewServer(":0", &fakeDashboard{}, nil, &fakeStats{hits: 7, misses: 3, entries: 2})
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}

	var got struct {
		Status string `json:"status"`
		Cache  struct {
			Hits    uint64 `json:"hits"`
			Misses  uint64 `json:"misses"`
			Entries int    `json:"entries"`
		} `json:"cache"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ready" {
		t.Errorf("status=%q, want ready", got.Status)
	}
	if got.Cache.Hits != 7 || got.Cache.Misses != 3 || got.Cache.Entries != 2 {
		t.Errorf("cache stats=%+v", got.Cache)
	}
}

func TestPortfoliosEndpoint(t *testing.T) {
	srv := NewServer(":0", &fakeDashboard{}, nil, nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}

	var got []portfolioResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "hargrove" || len(got[0].Datasets) != 1 {
		t.Errorf("unexpected listing: %+v", got)
	}
}

func TestDatasetEndpoint_StableFieldNames(t *testing.T) {
	dash := &fakeDashboard{summary: testSummary()}
	srv := NewServer(":0", dash, nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolios/hargrove/ap", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	// Field names are the frontend contract.
	for _, field := range []string{"dataset", "source", "total", "buckets", "entities", "dso", "dpo", "hhi"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("response missing field %q", field)
		}
	}
	buckets, _ := raw["buckets"].(map[string]any)
	for _, field := range []string{"current", "b1_30", "b31_60", "b61_90", "b90_plus"} {
		if _, ok := buckets[field]; !ok {
			t.Errorf("buckets missing field %q", field)
		}
	}
	if raw["source"] != "live" {
		t.Errorf("source = %v", raw["source"])
	}
	if raw["total"].(float64) != 79449.47 {
		t.Errorf("total = %v", raw["total"])
	}
}

func TestDatasetEndpoint_ForceQuery(t *testing.T) {
	dash := &fakeDashboard{summary: testSummary()}
	srv := NewServer(":0", dash, nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolios/hargrove/ar?force=true", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !dash.lastForce {
		t.Error("force=true query must bypass the cache")
	}
}

func TestDatasetEndpoint_UnknownPortfolio(t *testing.T) {
	dash := &fakeDashboard{err: fmt.Errorf("unknown portfolio %q", "nope")}
	srv := NewServer(":0", dash, nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolios/nope/ap", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	dash := &fakeDashboard{snapshot: core.PortfolioSnapshot{
		Portfolio: "hargrove",
		FetchedAt: time.Now(),
		Datasets: map[string]core.DatasetSummary{
			core.DatasetAPSummary: testSummary(),
		},
	}}
	srv := NewServer(":0", dash, nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolios/hargrove/dashboard", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}

	var got snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Portfolio != "hargrove" || len(got.Datasets) != 1 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	dash := &fakeDashboard{snapshot: core.PortfolioSnapshot{
		Portfolio: "hargrove",
		FetchedAt: time.Now(),
		Datasets: map[string]core.DatasetSummary{
			core.DatasetAPSummary: testSummary(),
		},
	}}
	pub := &fakePublisher{}
	srv := NewServer(":0", dash, pub, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolios/hargrove/refresh", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if len(dash.invalidated) != 1 || dash.invalidated[0] != "hargrove" {
		t.Errorf("refresh must invalidate the portfolio cache: %v", dash.invalidated)
	}
	if !dash.lastForce {
		t.Error("refresh must force a live snapshot")
	}
	if len(pub.published) != 1 || pub.published[0].Portfolio != "hargrove" {
		t.Errorf("refresh must publish a notification: %+v", pub.published)
	}
}

func TestRefreshEndpoint_PublishFailureIsNotFatal(t *testing.T) {
	dash := &fakeDashboard{snapshot: core.PortfolioSnapshot{Portfolio: "hargrove"}}
	pub := &fakePublisher{err: fmt.Errorf("broker down")}
	srv := NewServer(":0", dash, pub, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/portfolios/hargrove/refresh", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("publish failure must not fail the refresh, got %d", rr.Code)
	}
}

func TestRefreshEndpoint_WrongMethod(t *testing.T) {
	srv := NewServer(":0", &fakeDashboard{}, nil, nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/portfolios/hargrove/refresh", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("4th request in the window should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other clients are limited independently")
	}
}
