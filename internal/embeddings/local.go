package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalDimensions matches all-MiniLM-L6-v2 so stored indexes keep the same shape.
const LocalDimensions = 384

// Local is a hashed bag-of-words embedder. It needs no network or model
// files, so the demo works fully offline.
type Local struct {
	Dimensions int
}

func NewLocal() *Local {
	return &Local{Dimensions: LocalDimensions}
}

func (l *Local) Name() string { return "local-hash" }

func (l *Local) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.embed(t)
	}
	return out, nil
}

func (l *Local) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.embed(text), nil
}

func (l *Local) embed(text string) []float32 {
	dims := l.Dimensions
	if dims <= 0 {
		dims = LocalDimensions
	}
	vec := make([]float32, dims)

	words := tokenize(text)
	for i, w := range words {
		add(vec, w, 1)
		if i > 0 {
			add(vec, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	// Vetor nulo quebra a similaridade de cosseno.
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func add(vec []float32, term string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(term))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
