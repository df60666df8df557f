package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// failingSource always errors, for degradation tests.
type failingSource struct{}

func (failingSource) Name() string      { return "failing" }
func (failingSource) Available() bool   { return true }
func (failingSource) Search(context.Context, string) ([]Document, error) {
	return nil, fmt.Errorf("backend offline")
}

// offlineSource reports unavailable and must never be queried.
type offlineSource struct{ t *testing.T }

func (offlineSource) Name() string    { return "offline" }
func (offlineSource) Available() bool { return false }
func (o offlineSource) Search(context.Context, string) ([]Document, error) {
	o.t.Fatalf("unavailable source must not be searched")
	return nil, nil
}

func TestMemorySourceSearch(t *testing.T) {
	m := NewMemorySource()
	m.Add(Document{Path: "sales.md", Content: "sales.csv columns: date, amount, region"})
	m.Add(Document{Path: "weather.md", Content: "weather station readings"})

	docs, err := m.Search(context.Background(), "sales amount by region")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 || docs[0].Path != "sales.md" {
		t.Fatalf("docs: %+v", docs)
	}
	if docs[0].Confidence <= 0 {
		t.Fatalf("confidence: %v", docs[0].Confidence)
	}
	if docs[0].Source != "memory" {
		t.Fatalf("source: %q", docs[0].Source)
	}
}

func TestRetrieverMergesAndRanks(t *testing.T) {
	a := NewMemorySource()
	a.Add(Document{Path: "full.md", Content: "sales figures by month and region"})
	b := NewMemorySource()
	b.Add(Document{Path: "partial.md", Content: "sales only"})

	r := NewRetriever([]Source{a, b})
	docs, err := r.Search(context.Background(), "sales figures month", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs: %+v", docs)
	}
	if docs[0].Path != "full.md" {
		t.Fatalf("higher overlap must rank first: %+v", docs)
	}
}

func TestRetrieverCapsAtK(t *testing.T) {
	m := NewMemorySource()
	for i := 0; i < 10; i++ {
		m.Add(Document{Path: fmt.Sprintf("doc%d.md", i), Content: "sales data notes"})
	}

	r := NewRetriever([]Source{m})
	docs, err := r.Search(context.Background(), "sales data", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("k cap not applied: %d", len(docs))
	}
}

func TestRetrieverSkipsFailingAndOfflineSources(t *testing.T) {
	m := NewMemorySource()
	m.Add(Document{Path: "sales.md", Content: "sales data notes"})

	r := NewRetriever([]Source{failingSource{}, offlineSource{t: t}, m})
	docs, err := r.Search(context.Background(), "sales data", 5)
	if err != nil {
		t.Fatalf("a failing source must not fail the search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("healthy source results lost: %+v", docs)
	}
}

func TestFilesystemSourceSearch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "schema.md"), "sales.csv columns: date, amount")
	writeFile(t, filepath.Join(dir, "ignore.bin"), "sales sales sales")
	writeFile(t, filepath.Join(dir, "other.txt"), "unrelated notes")

	f := NewFilesystemSource(dir)
	if !f.Available() {
		t.Fatalf("source should be available")
	}

	docs, err := f.Search(context.Background(), "sales amount")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 || filepath.Base(docs[0].Path) != "schema.md" {
		t.Fatalf("docs: %+v", docs)
	}
}

func TestFilesystemSourceUnavailableWhenMissing(t *testing.T) {
	f := NewFilesystemSource(filepath.Join(t.TempDir(), "does-not-exist"))
	if f.Available() {
		t.Fatalf("missing directory must report unavailable")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
