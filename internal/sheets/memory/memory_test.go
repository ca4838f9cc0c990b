package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	ports "finboard/internal/sheets"
)

func TestStore_PutAndFetch(t *testing.T) {
	s := New()
	s.Put("101", "Vendor,Total\nAcme,$1.00\n")

	got, err := s.FetchCSV(context.Background(), ports.TabRef{GID: "101"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Vendor,Total\nAcme,$1.00\n" {
		t.Errorf("unexpected fixture: %q", got)
	}

	if _, err := s.FetchCSV(context.Background(), ports.TabRef{GID: "missing"}); err == nil {
		t.Error("expected error for unknown tab")
	}
}

func TestStore_FallsBackToName(t *testing.T) {
	s := New()
	s.Put("AP Summary", "Vendor,Total\n")
	if _, err := s.FetchCSV(context.Background(), ports.TabRef{GID: "999", Name: "AP Summary"}); err != nil {
		t.Errorf("expected name fallback, got %v", err)
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ap_summary.csv"), []byte("Vendor,Total\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFromDir(dir)
	if _, err := s.FetchCSV(context.Background(), ports.TabRef{GID: "ap_summary"}); err != nil {
		t.Errorf("expected ap_summary fixture, got %v", err)
	}
	if _, err := s.FetchCSV(context.Background(), ports.TabRef{GID: "notes"}); err == nil {
		t.Error("non-csv file must not be loaded")
	}

	empty := NewFromDir(filepath.Join(dir, "does-not-exist"))
	if _, err := empty.FetchCSV(context.Background(), ports.TabRef{GID: "x"}); err == nil {
		t.Error("missing dir must yield an empty store")
	}
}
