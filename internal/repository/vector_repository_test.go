package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"contextchat/internal/db"
	"contextchat/internal/model"
)

func TestVectorRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.EnsureSchema(ctx, pool, 4))

	repo := &VectorRepository{DB: pool}
	key := "test-" + uuid.NewString()
	defer repo.Delete(ctx, key)

	_, err = repo.Search(ctx, key, unit(0), 4)
	require.ErrorIs(t, err, model.ErrNoDocument)

	chunks := []model.Chunk{
		{ID: uuid.NewString(), Seq: 0, Source: "a.txt", Content: "alpha"},
		{ID: uuid.NewString(), Seq: 1, Source: "a.txt", Content: "beta"},
	}
	require.NoError(t, repo.Save(ctx, key, chunks, [][]float32{unit(0), unit(1)}))

	ok, err := repo.Has(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := repo.Search(ctx, key, unit(1), 4)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "beta", res[0].Chunk.Content)
	require.InDelta(t, 1.0, res[0].Score, 1e-6)

	require.NoError(t, repo.Delete(ctx, key))
	_, err = repo.Search(ctx, key, unit(1), 4)
	require.ErrorIs(t, err, model.ErrNoDocument)
}
