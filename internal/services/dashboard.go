package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/mockdata"
	"finboard/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// DashboardService orchestrates fetch -> parse -> aggregate per sheet and
// assembles portfolio snapshots. Failures are contained per sheet: a sheet
// that cannot be fetched or parsed contributes mock data of the same shape
// while its siblings proceed.
type DashboardService struct {
	source   sheets.RowsReader
	mock     *mockdata.Generator
	cache    cache.Cache[core.DatasetSummary]
	registry *config.Registry
	cfg      *config.Config
	now      func() time.Time

	// Stale-response guard: fetches are numbered per cache key and a result
	// that arrives after a newer one has been committed is dropped instead
	// of clobbering it.
	mu        sync.Mutex
	issued    map[string]uint64
	committed map[string]uint64
}

func NewDashboardService(
	source sheets.RowsReader,
	mock *mockdata.Generator,
	summaryCache cache.Cache[core.DatasetSummary],
	registry *config.Registry,
	cfg *config.Config,
) *DashboardService {
	return &DashboardService{
		source:    source,
		mock:      mock,
		cache:     summaryCache,
		registry:  registry,
		cfg:       cfg,
		now:       time.Now,
		issued:    make(map[string]uint64),
		committed: make(map[string]uint64),
	}
}

// Dataset returns one dataset summary for a portfolio. force bypasses the
// cache. The returned error is non-nil only for unknown portfolios or
// datasets; sheet-level failures degrade to mock data.
func (s *DashboardService) Dataset(ctx context.Context, portfolioID, dataset string, force bool) (core.DatasetSummary, error) {
	portfolio, ok := s.registry.Get(portfolioID)
	if !ok {
		return core.DatasetSummary{}, fmt.Errorf("unknown portfolio %q", portfolioID)
	}

	key := portfolioID + "/" + dataset
	if !force {
		if cached, ok := s.cache.Get(key); ok {
			cached.Source = core.SourceCache
			return cached, nil
		}
	}

	tab, ok := portfolio.Tabs[dataset]
	if !ok {
		// Not configured for this portfolio: serve the mock shape so the
		// caller's key set stays complete.
		slog.DebugContext(ctx, "Dataset not configured, serving mock",
			"portfolio", portfolioID, "dataset", dataset)
		return s.mockDataset(dataset)
	}

	seq := s.nextSeq(key)
	aggCfg := portfolio.AggregateConfig(s.cfg)

	rows, err := s.source.ReadRows(ctx, sheets.TabRef{
		SpreadsheetID: portfolio.SpreadsheetID,
		GID:           tab.GID,
		Name:          tab.Name,
	})
	if err != nil {
		slog.WarnContext(ctx, "Sheet fetch failed, falling back to mock data",
			"portfolio", portfolioID, "dataset", dataset, "error", err)
		return s.mockDataset(dataset)
	}

	summary, err := parseDataset(rows, dataset, tab, aggCfg, s.now())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrHeaderNotFound):
			slog.WarnContext(ctx, "Header row not found, falling back to mock data",
				"portfolio", portfolioID, "dataset", dataset)
		case errors.Is(err, core.ErrEmptySheet):
			slog.WarnContext(ctx, "Sheet parsed empty, falling back to mock data",
				"portfolio", portfolioID, "dataset", dataset)
		case errors.Is(err, core.ErrUnknownDataset):
			return core.DatasetSummary{}, err
		default:
			slog.WarnContext(ctx, "Sheet parse failed, falling back to mock data",
				"portfolio", portfolioID, "dataset", dataset, "error", err)
		}
		return s.mockDataset(dataset)
	}

	if !s.commit(key, seq, summary) {
		// A newer fetch already landed; serve that instead of this stale one.
		slog.DebugContext(ctx, "Dropping stale fetch result",
			"portfolio", portfolioID, "dataset", dataset, "seq", seq)
		if cached, ok := s.cache.Get(key); ok {
			cached.Source = core.SourceCache
			return cached, nil
		}
	}
	return summary, nil
}

// Snapshot builds the full set of datasets for one portfolio. Sheets are
// fetched concurrently and joined; per-sheet failures surface as mock data,
// so partial success is the normal degraded mode.
func (s *DashboardService) Snapshot(ctx context.Context, portfolioID string, force bool) (core.PortfolioSnapshot, error) {
	portfolio, ok := s.registry.Get(portfolioID)
	if !ok {
		return core.PortfolioSnapshot{}, fmt.Errorf("unknown portfolio %q", portfolioID)
	}

	snapshot := core.PortfolioSnapshot{
		Portfolio: portfolioID,
		FetchedAt: s.now(),
		Datasets:  make(map[string]core.DatasetSummary, len(portfolio.Tabs)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for dataset := range portfolio.Tabs {
		g.Go(func() error {
			summary, err := s.Dataset(gctx, portfolioID, dataset, force)
			if err != nil {
				return err
			}
			mu.Lock()
			snapshot.Datasets[dataset] = summary
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.PortfolioSnapshot{}, err
	}
	return snapshot, nil
}

// Invalidate drops cached summaries for one portfolio.
func (s *DashboardService) Invalidate(portfolioID string) {
	portfolio, ok := s.registry.Get(portfolioID)
	if !ok {
		return
	}
	for dataset := range portfolio.Tabs {
		s.cache.Delete(portfolioID + "/" + dataset)
	}
}

// Portfolios lists the registry entries.
func (s *DashboardService) Portfolios() []config.Portfolio {
	return s.registry.Portfolios
}

func (s *DashboardService) mockDataset(dataset string) (core.DatasetSummary, error) {
	summary, err := s.mock.Dataset(dataset)
	if err != nil {
		return core.DatasetSummary{}, err
	}
	return summary, nil
}

func (s *DashboardService) nextSeq(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[key]++
	return s.issued[key]
}

// commit stores a parse result unless a newer sequence number already
// landed for the same key. The mutex is held across the cache write so a
// slow older fetch cannot pass the sequence check and then overwrite a
// newer result that committed in between.
func (s *DashboardService) commit(key string, seq uint64, summary core.DatasetSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.committed[key] {
		return false
	}
	s.committed[key] = seq
	s.cache.Set(key, summary)
	return true
}
