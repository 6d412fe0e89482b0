package retriever

import (
	"fmt"

	"docreview/internal/adapter/index"
	"docreview/internal/domain"
	"docreview/internal/port"
)

// SemanticRetriever embeds a query and searches the vector index.
// Stateless apart from the shared read-only store, so concurrent
// retrievals are safe.
type SemanticRetriever struct {
	store    *index.Store
	embedder port.Embedder
}

func NewSemanticRetriever(store *index.Store, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		store:    store,
		embedder: embedder,
	}
}

// Retrieve returns the top-k fragments most similar to the query.
func (r *SemanticRetriever) Retrieve(query string, k int) ([]domain.ScoredFragment, error) {
	if r.store == nil || r.embedder == nil {
		return nil, fmt.Errorf("semantic retrieval not available: index or embedder missing")
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be a positive integer, got %d", k)
	}

	embeddings, err := r.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	return r.store.Search(embeddings[0], k)
}
