package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/zen-systems/queryflow/pkg/capability"
)

// Score pairs a capability with its bounded similarity to a query.
type Score struct {
	Capability capability.Capability
	Value      float64
}

// Error records an isolated embedding failure for one capability. A failed
// capability scores 0.0; it never aborts scoring of the others.
type Error struct {
	Capability string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("score capability %s: %v", e.Capability, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Scorer computes similarity between queries and capability descriptions.
// Description embeddings are cached by content hash; the cache is read-heavy
// and guarded by an RWMutex so concurrent queries can share it safely.
type Scorer struct {
	embedder Embedder
	expander *Expander

	mu    sync.RWMutex
	cache map[string][]float32

	debug bool
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithExpander sets the query expansion step.
func WithExpander(expander *Expander) ScorerOption {
	return func(s *Scorer) {
		s.expander = expander
	}
}

// WithDebug enables debug logging.
func WithDebug(debug bool) ScorerOption {
	return func(s *Scorer) {
		s.debug = debug
	}
}

// NewScorer creates a scorer backed by the given embedder.
func NewScorer(embedder Embedder, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		embedder: embedder,
		cache:    make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the similarity in [0,1] between a query and one capability.
func (s *Scorer) Score(ctx context.Context, query string, cap capability.Capability) (float64, error) {
	queryVecs, err := s.queryEmbeddings(ctx, query)
	if err != nil {
		return 0, &Error{Capability: cap.Name(), Err: err}
	}
	descVec, err := s.descriptionEmbedding(ctx, cap)
	if err != nil {
		return 0, &Error{Capability: cap.Name(), Err: err}
	}
	return bestSimilarity(queryVecs, descVec), nil
}

// ScoreAll scores a query against every capability. The result is sorted by
// descending value with ties keeping the input (registry) order. Failed
// capabilities score 0.0 and their errors are returned alongside.
func (s *Scorer) ScoreAll(ctx context.Context, query string, caps []capability.Capability) ([]Score, []*Error) {
	var errs []*Error

	queryVecs, err := s.queryEmbeddings(ctx, query)
	if err != nil {
		// Query embedding failed: every capability scores zero.
		scores := make([]Score, len(caps))
		for i, cap := range caps {
			scores[i] = Score{Capability: cap}
			errs = append(errs, &Error{Capability: cap.Name(), Err: err})
		}
		return scores, errs
	}

	scores := make([]Score, len(caps))
	for i, cap := range caps {
		descVec, err := s.descriptionEmbedding(ctx, cap)
		if err != nil {
			scores[i] = Score{Capability: cap}
			errs = append(errs, &Error{Capability: cap.Name(), Err: err})
			if s.debug {
				log.Printf("[scoring] %s: embedding failed: %v", cap.Name(), err)
			}
			continue
		}
		scores[i] = Score{Capability: cap, Value: bestSimilarity(queryVecs, descVec)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})

	return scores, errs
}

// queryEmbeddings embeds the expanded forms of the query.
func (s *Scorer) queryEmbeddings(ctx context.Context, query string) ([][]float32, error) {
	forms := []string{query}
	if s.expander != nil {
		forms = s.expander.Expand(query)
	}

	vecs := make([][]float32, 0, len(forms))
	for _, form := range forms {
		vec, err := s.embedder.Embed(ctx, form)
		if err != nil {
			return nil, fmt.Errorf("embed query form %q: %w", form, err)
		}
		vecs = append(vecs, vec)
	}
	return vecs, nil
}

// descriptionEmbedding returns the cached embedding for a capability's
// description, computing it on first use.
func (s *Scorer) descriptionEmbedding(ctx context.Context, cap capability.Capability) ([]float32, error) {
	key := hashDescription(cap.Description())

	s.mu.RLock()
	vec, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := s.embedder.Embed(ctx, cap.Description())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = vec
	s.mu.Unlock()

	return vec, nil
}

// CacheSize returns the number of cached description embeddings.
func (s *Scorer) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// bestSimilarity takes the best clamped cosine similarity across the
// expanded query forms.
func bestSimilarity(queryVecs [][]float32, descVec []float32) float64 {
	best := 0.0
	for _, qv := range queryVecs {
		if sim := clampedCosine(qv, descVec); sim > best {
			best = sim
		}
	}
	return best
}

// clampedCosine computes cosine similarity clamped to [0,1]. Mismatched
// dimensions and zero-norm vectors yield 0.0 rather than an error.
func clampedCosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func hashDescription(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}
