package capability

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func named(name string) Capability {
	return &FuncCapability{CapName: name, CapDescription: name}
}

func TestRegistryOrdersByPriority(t *testing.T) {
	r, err := NewRegistry(
		Entry{Capability: named("low"), Priority: 1},
		Entry{Capability: named("high"), Priority: 10},
		Entry{Capability: named("mid"), Priority: 5},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	want := []string{"high", "mid", "low"}
	for i, entry := range r.Entries() {
		if entry.Capability.Name() != want[i] {
			t.Fatalf("order at %d: %s", i, entry.Capability.Name())
		}
	}
}

func TestRegistryPreservesOrderWithinPriority(t *testing.T) {
	r, err := NewRegistry(
		Entry{Capability: named("first")},
		Entry{Capability: named("second")},
		Entry{Capability: named("third")},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	want := []string{"first", "second", "third"}
	for i, cap := range r.Capabilities() {
		if cap.Name() != want[i] {
			t.Fatalf("order at %d: %s", i, cap.Name())
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Entry{Capability: named("dup")},
		Entry{Capability: named("dup")},
	)
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestRegistryRejectsNilAndUnnamed(t *testing.T) {
	if _, err := NewRegistry(Entry{}); err == nil {
		t.Fatalf("expected error for nil capability")
	}
	if _, err := NewRegistry(Entry{Capability: named("")}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestRegistryGet(t *testing.T) {
	r, err := NewRegistry(Entry{Capability: named("sales"), Keywords: []string{"sales"}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	entry, ok := r.Get("sales")
	if !ok || entry.Capability.Name() != "sales" {
		t.Fatalf("get: %+v %v", entry, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatalf("missing name should not resolve")
	}
	if r.Len() != 1 {
		t.Fatalf("len: %d", r.Len())
	}
}

func TestCommandCapabilityExecutes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}

	cap, err := NewCommandCapability("echoer", "echoes the query",
		[]string{"/bin/sh", "-c", `printf '%s' "$QUERYFLOW_QUERY"`}, "", 5*time.Second)
	if err != nil {
		t.Fatalf("command capability: %v", err)
	}

	res := cap.Execute(context.Background(), "hello there")
	if !res.Success {
		t.Fatalf("execute failed: %+v", res)
	}
	if res.Payload["output"] != "hello there" {
		t.Fatalf("output: %+v", res.Payload)
	}
}

func TestCommandCapabilityFailureCapturesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}

	cap, err := NewCommandCapability("failer", "always fails",
		[]string{"/bin/sh", "-c", "echo broken >&2; exit 3"}, "", 5*time.Second)
	if err != nil {
		t.Fatalf("command capability: %v", err)
	}

	res := cap.Execute(context.Background(), "q")
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Error == "" {
		t.Fatalf("stderr should surface in the error")
	}
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capabilities.yaml")
	data := []byte(`capabilities:
  - name: sales_report
    description: Summarizes sales figures
    priority: 5
    keywords: ["sales report"]
    command: ["/bin/sh", "-c", "echo ok"]
  - name: row_count
    description: Counts rows in a dataset
    command: ["/bin/sh", "-c", "echo 0"]
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("len: %d", r.Len())
	}

	entry, ok := r.Get("sales_report")
	if !ok || entry.Priority != 5 || len(entry.Keywords) != 1 {
		t.Fatalf("entry: %+v", entry)
	}
	// Higher priority first.
	if r.Entries()[0].Capability.Name() != "sales_report" {
		t.Fatalf("priority order lost")
	}
}

func TestLoadDefinitionsRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capabilities.yaml")
	data := []byte("capabilities:\n  - name: broken\n    description: no command\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadDefinitions(path); err == nil {
		t.Fatalf("expected error for missing command")
	}
}
