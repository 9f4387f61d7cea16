package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"contextchat/internal/config"
	"contextchat/internal/embeddings"
	"contextchat/internal/repository"
	"contextchat/internal/retrieval"
)

const corpus = `Solar panels convert sunlight into electricity using photovoltaic cells.

Wind turbines generate power from moving air and work best on open plains.

The invoice for the maintenance contract is due on the last day of the month.`

// fakeGenerator answers condense prompts with a fixed rewrite and every other
// prompt with a fixed answer, recording what it was sent.
type fakeGenerator struct {
	mu         sync.Mutex
	prompts    []string
	keys       []string
	standalone string
	answer     string
	err        error
}

func (f *fakeGenerator) Generate(_ context.Context, apiKey, prompt string, _ config.GenerationParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return "", f.err
	}
	if strings.HasSuffix(prompt, "Standalone question:") {
		return f.standalone, nil
	}
	return f.answer, nil
}

var errGenerator = errors.New("generator down")

func newTestChain(gen *fakeGenerator) (*Chain, *retrieval.Indexer) {
	store := repository.NewMemoryStore()
	emb := embeddings.NewLocal()
	ix := &retrieval.Indexer{Store: store, Embedder: emb, Workers: 2, BatchSize: 4}
	return &Chain{Store: store, Embedder: emb, Generator: gen, K: 2}, ix
}
