package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"contextchat/internal/model"
)

// MemoryStore keeps one chromem collection per index key.
type MemoryStore struct {
	DB *chromem.DB
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{DB: chromem.NewDB()}
}

func collectionName(key string) string { return "idx-" + key }

func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	c := s.DB.GetCollection(collectionName(key), nil)
	return c != nil && c.Count() > 0, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("save %s: %d chunks but %d vectors", key, len(chunks), len(vectors))
	}

	c, err := s.DB.GetOrCreateCollection(collectionName(key), map[string]string{"index_key": key}, nil)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID: ch.ID,
			Metadata: map[string]string{
				"seq":    strconv.Itoa(ch.Seq),
				"source": ch.Source,
			},
			Embedding: vectors[i],
			Content:   ch.Content,
		}
	}
	// chromem devolve nil quando o ctx é cancelado no meio do lote
	err = c.AddDocuments(ctx, docs, 4)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	if err == nil && c.Count() != len(chunks) {
		err = fmt.Errorf("save %s: stored %d of %d chunks", key, c.Count(), len(chunks))
	}
	if err != nil {
		_ = s.DB.DeleteCollection(collectionName(key))
		return err
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, key string, vector []float32, k int) ([]model.Retrieved, error) {
	c := s.DB.GetCollection(collectionName(key), nil)
	if c == nil {
		return nil, fmt.Errorf("index %s: %w", key, model.ErrNoDocument)
	}

	// chromem exige 0 < nResults <= Count
	n := min(k, c.Count())
	if n <= 0 {
		return nil, nil
	}

	res, err := c.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, err
	}

	out := make([]model.Retrieved, 0, len(res))
	for _, r := range res {
		seq, _ := strconv.Atoi(r.Metadata["seq"])
		out = append(out, model.Retrieved{
			Chunk: model.Chunk{
				ID:       r.ID,
				IndexKey: key,
				Seq:      seq,
				Source:   r.Metadata["source"],
				Content:  r.Content,
			},
			Score: float64(r.Similarity),
		})
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	return s.DB.DeleteCollection(collectionName(key))
}
