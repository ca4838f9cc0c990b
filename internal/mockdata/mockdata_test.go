package mockdata

import (
	"errors"
	"reflect"
	"testing"

	"finboard/internal/core"
)

func TestGenerator_Deterministic(t *testing.T) {
	g := New(core.AggregateConfig{})
	first, err := g.Dataset(core.DatasetAPSummary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := g.Dataset(core.DatasetAPSummary)
	if !reflect.DeepEqual(first, second) {
		t.Error("mock generation must be deterministic")
	}
}

func TestGenerator_AllDatasets(t *testing.T) {
	g := New(core.AggregateConfig{})
	keys := []string{
		core.DatasetAPSummary, core.DatasetAPByVendor,
		core.DatasetARSummary, core.DatasetARByClient,
		core.DatasetAgingTrend, core.DatasetCashFlow, core.DatasetWIPSchedule,
	}
	for _, key := range keys {
		s, err := g.Dataset(key)
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if s.Source != core.SourceMock {
			t.Errorf("%s: expected SourceMock, got %s", key, s.Source)
		}
		if s.Dataset != key {
			t.Errorf("%s: dataset key mismatch: %s", key, s.Dataset)
		}
		if key == core.DatasetWIPSchedule {
			if len(s.WIP) == 0 {
				t.Errorf("%s: expected WIP projects", key)
			}
			continue
		}
		if len(s.Entities) == 0 {
			t.Errorf("%s: expected entities", key)
		}
		if s.HHI <= 0 || s.HHI > 1 {
			t.Errorf("%s: HHI out of bounds: %v", key, s.HHI)
		}
	}
}

func TestGenerator_UnknownDataset(t *testing.T) {
	g := New(core.AggregateConfig{})
	if _, err := g.Dataset("nope"); !errors.Is(err, core.ErrUnknownDataset) {
		t.Errorf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestGenerator_EntitiesSorted(t *testing.T) {
	g := New(core.AggregateConfig{})
	s, _ := g.Dataset(core.DatasetARSummary)
	for i := 1; i < len(s.Entities); i++ {
		if s.Entities[i].Total.GreaterThan(s.Entities[i-1].Total.Decimal) {
			t.Fatalf("entities not sorted descending at %d", i)
		}
	}
}
