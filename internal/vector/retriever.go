package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/kiku/internal/embedding"
)

// Retriever runs top-k nearest-neighbor lookups over an index. k is fixed
// at construction; callers do not choose it per query.
type Retriever struct {
	embedder embedding.Embedder
	k        int
}

// NewRetriever creates a retriever returning up to k chunks per query.
func NewRetriever(embedder embedding.Embedder, k int) *Retriever {
	if k <= 0 {
		k = 4
	}
	return &Retriever{embedder: embedder, k: k}
}

// K returns the configured result count.
func (r *Retriever) K() int { return r.k }

// Retrieve embeds query and returns the top-k most similar chunks from ix,
// highest similarity first.
func (r *Retriever) Retrieve(ctx context.Context, ix *Index, query string) ([]Hit, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.Search(vec, r.k)
}
