// Package scoring turns capability descriptions and queries into comparable
// vectors and bounded similarity scores.
package scoring

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder turns text into a vector. Implementations must be safe for
// concurrent use; the scorer may embed several capabilities at once.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int

	// Name returns the backend identifier.
	Name() string
}

// HashEmbedder is a deterministic offline embedder: a normalized bag-of-words
// vector with token positions chosen by FNV hashing. It exists for local runs
// and tests, mirroring the deterministic mock generation adapter.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

// Name returns the backend identifier.
func (e *HashEmbedder) Name() string { return "hash" }

// Dimensions returns the configured dimensionality.
func (e *HashEmbedder) Dimensions() int { return e.dims }

// Embed produces a unit-normalized token-count vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
