package artifact

import "testing"

func TestNew(t *testing.T) {
	a := New("print(1)", "python", "mock", "mock-1", "prompt text")

	if a.ID == "" {
		t.Fatalf("missing ID")
	}
	if a.Version != 1 {
		t.Fatalf("version: %d", a.Version)
	}
	if a.Hash == "" {
		t.Fatalf("missing content hash")
	}
	if a.CreatedAt.IsZero() {
		t.Fatalf("missing timestamp")
	}
}

func TestRegeneratedKeepsIdentity(t *testing.T) {
	a := New("print(1)", "python", "mock", "mock-1", "prompt")
	b := a.Regenerated("print(2)", "repair prompt")

	if b.ID != a.ID {
		t.Fatalf("regeneration must keep the artifact ID")
	}
	if b.Version != 2 {
		t.Fatalf("version: %d", b.Version)
	}
	if b.Content != "print(2)" || b.Prompt != "repair prompt" {
		t.Fatalf("content not replaced: %+v", b)
	}
	if b.Hash == a.Hash {
		t.Fatalf("hash must track content")
	}
	if a.Version != 1 || a.Content != "print(1)" {
		t.Fatalf("original must be untouched")
	}
}

func TestDistinctArtifactsGetDistinctIDs(t *testing.T) {
	a := New("x", "python", "mock", "mock-1", "p")
	b := New("x", "python", "mock", "mock-1", "p")
	if a.ID == b.ID {
		t.Fatalf("IDs must be unique")
	}
}
