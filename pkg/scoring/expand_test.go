package scoring

import (
	"testing"
)

func TestExpandIncludesOriginalFirst(t *testing.T) {
	e := DefaultExpander()

	forms := e.Expand("show me the total")
	if forms[0] != "show me the total" {
		t.Fatalf("original must come first: %v", forms)
	}
	if len(forms) < 2 {
		t.Fatalf("expected expansion for known terms: %v", forms)
	}
}

func TestExpandDeterministicOrder(t *testing.T) {
	e := DefaultExpander()

	first := e.Expand("compare the average")
	for i := 0; i < 5; i++ {
		again := e.Expand("compare the average")
		if len(again) != len(first) {
			t.Fatalf("expansion count varies")
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("expansion order varies at %d: %v vs %v", j, first, again)
			}
		}
	}
}

func TestExpandWordBoundaries(t *testing.T) {
	e := NewExpander(map[string][]string{"show": {"display"}})

	forms := e.Expand("showcase the results")
	if len(forms) != 1 {
		t.Fatalf("substring inside a word must not expand: %v", forms)
	}

	forms = e.Expand("show the results")
	if len(forms) != 2 || forms[1] != "display the results" {
		t.Fatalf("boundary match should expand: %v", forms)
	}
}

func TestExpandNoMatches(t *testing.T) {
	e := DefaultExpander()
	forms := e.Expand("unrelated question")
	if len(forms) != 1 || forms[0] != "unrelated question" {
		t.Fatalf("no-match query must return only itself: %v", forms)
	}
}

func TestExpandDeduplicates(t *testing.T) {
	e := NewExpander(map[string][]string{
		"total": {"sum", "sum"},
	})
	forms := e.Expand("total sales")
	if len(forms) != 2 {
		t.Fatalf("duplicate variants must collapse: %v", forms)
	}
}
