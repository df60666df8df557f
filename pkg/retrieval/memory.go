package retrieval

import (
	"context"
	"strings"
	"sync"
)

// MemorySource is an in-process document store, used for dataset schemas and
// column notes registered at startup, and by tests.
type MemorySource struct {
	mu   sync.RWMutex
	docs []Document
}

// NewMemorySource creates an empty memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// Name returns the source identifier.
func (m *MemorySource) Name() string { return "memory" }

// Available always reports true.
func (m *MemorySource) Available() bool { return true }

// Add stores a document.
func (m *MemorySource) Add(doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.Source = m.Name()
	m.docs = append(m.docs, doc)
}

// Search scores stored documents by keyword overlap with the query.
func (m *MemorySource) Search(_ context.Context, query string) ([]Document, error) {
	keywords := extractKeywords(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Document
	for _, doc := range m.docs {
		confidence := keywordOverlap(strings.ToLower(doc.Content), keywords)
		if confidence == 0 {
			continue
		}
		hit := doc
		hit.Confidence = confidence
		results = append(results, hit)
	}
	return results, nil
}

// extractKeywords drops short stop-ish tokens and returns the rest.
func extractKeywords(text string) []string {
	var keywords []string
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, ".,!?\"'()")
		if len(token) > 2 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

// keywordOverlap returns the fraction of keywords present in the text.
func keywordOverlap(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
