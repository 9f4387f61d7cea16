package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls atomic.Int32
	fail  string
}

func (c *countingEmbedder) Name() string { return "counting" }

func (c *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if t == c.fail {
			return nil, errors.New("boom")
		}
		var n float32
		fmt.Sscanf(t, "t%g", &n)
		out[i] = []float32{n}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func TestRunWorkersPreservesOrder(t *testing.T) {
	texts := make([]string, 37)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}
	e := &countingEmbedder{}

	vecs, err := RunWorkers(context.Background(), texts, e, 4, 5)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		require.Equal(t, float32(i), v[0])
	}
	require.EqualValues(t, 8, e.calls.Load())
}

func TestRunWorkersReturnsFirstError(t *testing.T) {
	texts := []string{"t0", "t1", "t2", "t3"}
	_, err := RunWorkers(context.Background(), texts, &countingEmbedder{fail: "t2"}, 2, 1)
	require.EqualError(t, err, "boom")
}

func TestRunWorkersEmptyInput(t *testing.T) {
	vecs, err := RunWorkers(context.Background(), nil, &countingEmbedder{}, 4, 8)
	require.NoError(t, err)
	require.Empty(t, vecs)
}
