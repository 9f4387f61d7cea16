package retrieval

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"contextchat/internal/config"
	"contextchat/internal/embeddings"
	"contextchat/internal/model"
	"contextchat/internal/repository"
)

type countingEmbedder struct {
	*embeddings.Local
	docs atomic.Int32
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	c.docs.Add(int32(len(texts)))
	return c.Local.EmbedDocuments(ctx, texts)
}

const corpus = `Solar panels convert sunlight into electricity using photovoltaic cells.

Wind turbines generate power from moving air and work best on open plains.

The invoice for the maintenance contract is due on the last day of the month.`

func newIndexer() (*Indexer, *countingEmbedder) {
	e := &countingEmbedder{Local: embeddings.NewLocal()}
	return &Indexer{Store: repository.NewMemoryStore(), Embedder: e, Workers: 2, BatchSize: 2}, e
}

func TestBuildThenRetrieve(t *testing.T) {
	ctx := context.Background()
	ix, e := newIndexer()

	report, err := ix.Build(ctx, corpus, config.SplitParams{ChunkSize: 90})
	require.NoError(t, err)
	require.False(t, report.Cached)
	require.Equal(t, 3, report.Chunks)
	require.Equal(t, len([]rune(corpus)), report.Characters)
	require.Equal(t, report.Characters/4, report.EstimatedTokens)
	require.EqualValues(t, 3, e.docs.Load())

	r := Retriever{Store: ix.Store, Embedder: e, Key: report.IndexKey, K: 1}
	got, err := r.Retrieve(ctx, "when is the invoice due")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, strings.Contains(got[0].Chunk.Content, "invoice"))
}

func TestBuildReusesExistingIndex(t *testing.T) {
	ctx := context.Background()
	ix, e := newIndexer()
	p := config.SplitParams{ChunkSize: 90}

	first, err := ix.Build(ctx, corpus, p)
	require.NoError(t, err)
	second, err := ix.Build(ctx, corpus, p)
	require.NoError(t, err)

	require.True(t, second.Cached)
	require.Equal(t, first.IndexKey, second.IndexKey)
	require.Equal(t, first.Chunks, second.Chunks)
	require.EqualValues(t, 3, e.docs.Load())

	third, err := ix.Build(ctx, corpus, config.SplitParams{ChunkSize: 120, ChunkOverlap: 10})
	require.NoError(t, err)
	require.False(t, third.Cached)
	require.NotEqual(t, first.IndexKey, third.IndexKey)
}

func TestBuildEmptyText(t *testing.T) {
	ix, _ := newIndexer()
	_, err := ix.Build(context.Background(), "   ", config.DefaultSplit())
	require.ErrorIs(t, err, model.ErrEmptySplit)
}

func TestBuildInvalidParams(t *testing.T) {
	ix, _ := newIndexer()
	_, err := ix.Build(context.Background(), corpus, config.SplitParams{ChunkSize: 10, ChunkOverlap: 20})
	require.ErrorIs(t, err, model.ErrInvalidParams)
}

func TestRetrieveDefaultsToFour(t *testing.T) {
	ctx := context.Background()
	ix, e := newIndexer()
	text := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta. ", 40)

	report, err := ix.Build(ctx, text, config.SplitParams{ChunkSize: 50})
	require.NoError(t, err)
	require.Greater(t, report.Chunks, DefaultK)

	got, err := Retriever{Store: ix.Store, Embedder: e, Key: report.IndexKey}.Retrieve(ctx, "gamma")
	require.NoError(t, err)
	require.Len(t, got, DefaultK)
}

func TestRetrieveWithoutIndex(t *testing.T) {
	_, err := Retriever{Store: repository.NewMemoryStore(), Embedder: embeddings.NewLocal()}.Retrieve(context.Background(), "q")
	require.ErrorIs(t, err, model.ErrNoDocument)
}

func TestConcurrentBuildsShareOneIndexAndReleaseLocks(t *testing.T) {
	ctx := context.Background()
	ix, e := newIndexer()
	p := config.SplitParams{ChunkSize: 90}

	var wg sync.WaitGroup
	reports := make([]bool, 8)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := ix.Build(ctx, corpus, p)
			require.NoError(t, err)
			reports[i] = r.Cached
		}()
	}
	wg.Wait()

	fresh := 0
	for _, cached := range reports {
		if !cached {
			fresh++
		}
	}
	require.Equal(t, 1, fresh)
	require.EqualValues(t, 3, e.docs.Load())
	require.Zero(t, ix.locks.len())

	_, err := ix.Build(ctx, "another document", p)
	require.NoError(t, err)
	require.Zero(t, ix.locks.len())
}
