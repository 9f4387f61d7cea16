package repository

import (
	"context"

	"contextchat/internal/model"
)

// VectorStore holds the embedded chunks of every index, addressed by index key.
type VectorStore interface {
	Has(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, chunks []model.Chunk, vectors [][]float32) error
	Search(ctx context.Context, key string, vector []float32, k int) ([]model.Retrieved, error)
	Delete(ctx context.Context, key string) error
}
