package embeddings

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"contextchat/internal/model"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text recursively on paragraph, line, word and finally
// character boundaries until every chunk fits ChunkSize runes.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

func (s Splitter) Split(text string) ([]string, error) {
	if s.ChunkSize < 1 || s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", model.ErrInvalidParams, s.ChunkSize, s.ChunkOverlap)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.ChunkSize),
		textsplitter.WithChunkOverlap(s.ChunkOverlap),
		textsplitter.WithSeparators(defaultSeparators),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			chunks = append(chunks, p)
		}
	}
	if len(chunks) == 0 {
		return nil, model.ErrEmptySplit
	}
	return chunks, nil
}
