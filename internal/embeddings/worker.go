package embeddings

import (
	"context"
	"log"
	"sync"
)

type batch struct {
	start int
	texts []string
}

// RunWorkers embeds texts in batches on a fixed pool of workers. The result
// keeps the input order; the first failure cancels the remaining batches.
func RunWorkers(
	ctx context.Context,
	texts []string,
	embedder Embedder,
	workers int,
	batchSize int,
) ([][]float32, error) {

	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 16
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]float32, len(texts))
	jobs := make(chan batch)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				vecs, err := embedder.EmbedDocuments(ctx, b.texts)
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					log.Printf("[Embeddings] Erro no lote %d-%d: %v", b.start, b.start+len(b.texts), err)
					continue
				}
				copy(out[b.start:], vecs)
			}
		}()
	}

feed:
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		select {
		case jobs <- batch{start: start, texts: texts[start:end]}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
