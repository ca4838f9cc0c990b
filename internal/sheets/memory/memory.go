// Package memory is a fixture-backed sheet source for tests and offline
// development.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ports "finboard/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	tabs map[string]string // key -> raw CSV text
}

var _ ports.CSVFetcher = (*Store)(nil)

func New() *Store {
	return &Store{tabs: make(map[string]string)}
}

// NewFromDir loads every .csv file under base; the key for a tab is the file
// name without extension. A missing directory yields an empty store rather
// than an error so the service falls through to mock data.
func NewFromDir(base string) *Store {
	s := New()
	entries, err := os.ReadDir(base)
	if err != nil {
		return s
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(base, entry.Name()))
		if err != nil {
			continue
		}
		key := entry.Name()[:len(entry.Name())-len(".csv")]
		s.tabs[key] = string(data)
	}
	return s
}

// Put stores CSV text under a tab key.
func (s *Store) Put(key, csvText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[key] = csvText
}

// FetchCSV returns the fixture for the tab, keyed by GID then by name.
func (s *Store) FetchCSV(_ context.Context, tab ports.TabRef) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text, ok := s.tabs[tab.GID]; ok {
		return text, nil
	}
	if text, ok := s.tabs[tab.Name]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no fixture for tab gid=%q name=%q", tab.GID, tab.Name)
}
