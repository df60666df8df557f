package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	a := New("print(1)", "python", "mock", "mock-1", "prompt")
	ref, err := store.Save(a)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ref.ID != a.ID || ref.Version != a.Version {
		t.Fatalf("ref does not match artifact: %+v", ref)
	}
	if len(ref.SHA256) != 64 {
		t.Fatalf("expected full sha256 hex, got %q", ref.SHA256)
	}

	path := filepath.Join(store.BasePath, "objects", ref.SHA256[:2], ref.SHA256+".json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sharded object path missing: %v", err)
	}

	loaded, err := store.Load(ref.SHA256)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != a.ID || loaded.Content != a.Content || loaded.Hash != a.Hash {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestStoreSaveIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	a := New("x = 1", "python", "mock", "mock-1", "p")

	first, err := store.Save(a)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := store.Save(a)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if first.SHA256 != second.SHA256 {
		t.Fatalf("same artifact must hash identically")
	}
}

func TestStoreRejectsBadInput(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatalf("empty base path must be rejected")
	}
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Save(nil); err == nil {
		t.Fatalf("nil artifact must be rejected")
	}
	if _, err := store.Load("zz"); err == nil {
		t.Fatalf("short hash must be rejected")
	}
}
