package retrieval

import (
	"context"
	"fmt"

	"contextchat/internal/embeddings"
	"contextchat/internal/model"
	"contextchat/internal/repository"
)

const DefaultK = 4

// Retriever returns the K chunks of one index closest to a query.
type Retriever struct {
	Store    repository.VectorStore
	Embedder embeddings.Embedder
	Key      string
	K        int
}

func (r Retriever) Retrieve(ctx context.Context, query string) ([]model.Retrieved, error) {
	if r.Key == "" {
		return nil, model.ErrNoDocument
	}
	k := r.K
	if k <= 0 {
		k = DefaultK
	}

	vec, err := r.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.Store.Search(ctx, r.Key, vec, k)
}
