// Package retrieval gathers context documents for program generation.
// Failures here degrade to empty context; they never abort the pipeline.
package retrieval

import (
	"context"
	"log"
	"sort"
)

// Document is one piece of retrieved context.
type Document struct {
	Content    string            `json:"content"`
	Path       string            `json:"path,omitempty"`
	Source     string            `json:"source"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Source is a searchable document backend.
type Source interface {
	// Name returns the source identifier.
	Name() string

	// Search returns documents matching the query, best first.
	Search(ctx context.Context, query string) ([]Document, error)

	// Available reports whether the source can currently be queried.
	Available() bool
}

// Retriever searches all available sources and merges the results.
type Retriever struct {
	sources []Source
	debug   bool
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithDebug enables debug logging.
func WithRetrieverDebug(debug bool) RetrieverOption {
	return func(r *Retriever) {
		r.debug = debug
	}
}

// NewRetriever creates a retriever over the given sources.
func NewRetriever(sources []Source, opts ...RetrieverOption) *Retriever {
	r := &Retriever{sources: sources}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search queries every available source and returns the top k documents by
// confidence. A failing source contributes nothing; it never fails the call.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = 5
	}

	var merged []Document
	for _, source := range r.sources {
		if !source.Available() {
			continue
		}
		docs, err := source.Search(ctx, query)
		if err != nil {
			if r.debug {
				log.Printf("[retrieval] source %s failed: %v", source.Name(), err)
			}
			continue
		}
		merged = append(merged, docs...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}
