package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"contextchat/internal/config"
	"contextchat/internal/embeddings"
	"contextchat/internal/llm"
	"contextchat/internal/model"
	"contextchat/internal/repository"
	"contextchat/internal/retrieval"
)

// Chain answers questions over one index, using the conversation so far to
// rewrite follow ups before retrieval.
type Chain struct {
	Store     repository.VectorStore
	Embedder  embeddings.Embedder
	Generator llm.Generator
	K         int
}

type Answer struct {
	Question   string
	Standalone string
	Text       string
	Sources    []model.Retrieved
}

func (c *Chain) Ask(
	ctx context.Context,
	apiKey string,
	indexKey string,
	question string,
	history []model.ChatMessage,
	params config.GenerationParams,
) (Answer, error) {

	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, model.ErrEmptyQuestion
	}
	if indexKey == "" {
		return Answer{}, model.ErrNoDocument
	}
	if err := params.Validate(); err != nil {
		return Answer{}, err
	}

	ans := Answer{Question: question, Standalone: question}

	if len(history) > 0 {
		standalone, err := c.Generator.Generate(ctx, apiKey, CondensePrompt(history, question), params)
		if err != nil {
			return Answer{}, fmt.Errorf("condense question: %w", err)
		}
		if s := strings.TrimSpace(standalone); s != "" {
			ans.Standalone = s
		}
		log.Printf("[Chain] Pergunta reescrita: %q", ans.Standalone)
	}

	r := retrieval.Retriever{Store: c.Store, Embedder: c.Embedder, Key: indexKey, K: c.K}
	docs, err := r.Retrieve(ctx, ans.Standalone)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	ans.Sources = docs

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Chunk.Content
	}
	contextText := strings.Join(parts, "\n\n")
	log.Printf("[Chain] %d chunks recuperados | contexto com %d caracteres", len(docs), len(contextText))

	text, err := c.Generator.Generate(ctx, apiKey, QAPrompt(contextText, ans.Standalone), params)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	ans.Text = text
	return ans, nil
}
