package scoring

import (
	"sort"
	"strings"
)

// Expander deterministically rewrites a query into variant forms before
// embedding. Expansion always includes the original query as its first form
// and is idempotent: expanding any produced form yields no new forms for the
// original query.
type Expander struct {
	synonyms map[string][]string
}

// NewExpander creates an expander from a term-to-variants table. Keys are
// matched case-insensitively on word boundaries.
func NewExpander(synonyms map[string][]string) *Expander {
	normalized := make(map[string][]string, len(synonyms))
	for term, variants := range synonyms {
		normalized[strings.ToLower(term)] = variants
	}
	return &Expander{synonyms: normalized}
}

// DefaultExpander returns an expander with a small table of dataset-domain
// phrasings.
func DefaultExpander() *Expander {
	return NewExpander(map[string][]string{
		"show":     {"display", "list"},
		"history":  {"historical data", "past records"},
		"forecast": {"prediction", "projected values"},
		"compare":  {"difference between", "side by side"},
		"average":  {"mean"},
		"total":    {"sum"},
	})
}

// Expand returns the query's variant forms, original first, deduplicated,
// in deterministic order.
func (e *Expander) Expand(query string) []string {
	forms := []string{query}
	seen := map[string]bool{query: true}

	lower := strings.ToLower(query)

	terms := make([]string, 0, len(e.synonyms))
	for term := range e.synonyms {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	for _, term := range terms {
		if !containsWord(lower, term) {
			continue
		}
		for _, variant := range e.synonyms[term] {
			form := replaceWord(query, term, variant)
			if !seen[form] {
				seen[form] = true
				forms = append(forms, form)
			}
		}
	}

	return forms
}

// containsWord reports whether text contains term on word boundaries.
func containsWord(text, term string) bool {
	idx := strings.Index(text, term)
	if idx == -1 {
		return false
	}
	if idx > 0 && isWordChar(text[idx-1]) {
		return false
	}
	if end := idx + len(term); end < len(text) && isWordChar(text[end]) {
		return false
	}
	return true
}

// replaceWord substitutes the first boundary-matched occurrence of term,
// case-insensitively, preserving the rest of the query verbatim.
func replaceWord(query, term, variant string) string {
	lower := strings.ToLower(query)
	idx := strings.Index(lower, term)
	if idx == -1 {
		return query
	}
	return query[:idx] + variant + query[idx+len(term):]
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
