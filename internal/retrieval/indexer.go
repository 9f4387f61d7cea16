package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"contextchat/internal/config"
	"contextchat/internal/embeddings"
	"contextchat/internal/model"
	"contextchat/internal/observability"
	"contextchat/internal/repository"
)

// Indexer splits text, embeds the chunks and saves them under a key derived
// from the text and split settings. A key already present is reused.
type Indexer struct {
	Store     repository.VectorStore
	Embedder  embeddings.Embedder
	Workers   int
	BatchSize int

	locks keyLocks
}

// keyLocks serialises builds of the same key and forgets a key once no
// build holds or waits for it.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*keyLock)
	}
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyLocks) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}

// IndexKey identifies an index by content, split settings and embedder.
func IndexKey(text string, p config.SplitParams, embedderName string) string {
	h := sha256.New()
	h.Write([]byte(embedderName))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("%x-%d-%d", h.Sum(nil)[:12], p.ChunkSize, p.ChunkOverlap)
}

// Build indexes text. sources name the files the text came from and are
// stored with every chunk.
func (ix *Indexer) Build(ctx context.Context, text string, p config.SplitParams, sources ...string) (model.IngestReport, error) {
	if err := p.Validate(); err != nil {
		return model.IngestReport{}, err
	}

	chars := utf8.RuneCountInString(text)
	report := model.IngestReport{
		Characters:      chars,
		EstimatedTokens: chars / 4,
	}

	chunks, err := embeddings.Splitter{ChunkSize: p.ChunkSize, ChunkOverlap: p.ChunkOverlap}.Split(text)
	if err != nil {
		return report, err
	}
	report.Chunks = len(chunks)

	key := IndexKey(text, p, ix.Embedder.Name())
	report.IndexKey = key

	unlock := ix.locks.lock(key)
	defer unlock()

	exists, err := ix.Store.Has(ctx, key)
	if err != nil {
		return report, fmt.Errorf("check index: %w", err)
	}
	if exists {
		log.Printf("[Indexer] Índice %s já existe, reutilizando", key)
		report.Cached = true
		return report, nil
	}

	vectors, err := embeddings.RunWorkers(ctx, chunks, ix.Embedder, ix.Workers, ix.BatchSize)
	if err != nil {
		return report, fmt.Errorf("embed chunks: %w", err)
	}

	source := strings.Join(sources, ", ")
	records := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		records[i] = model.Chunk{
			ID:       uuid.NewString(),
			IndexKey: key,
			Seq:      i,
			Source:   source,
			Content:  c,
		}
	}

	if err := ix.Store.Save(ctx, key, records, vectors); err != nil {
		return report, fmt.Errorf("save index: %w", err)
	}
	observability.ChunksEmbedded.Add(float64(len(records)))

	log.Printf("[Indexer] %s: %d caracteres | ~%d tokens estimados | %d chunks", key, chars, chars/4, len(records))
	return report, nil
}
