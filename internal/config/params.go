package config

import (
	"fmt"

	"contextchat/internal/model"
)

const (
	DecodingGreedy = "greedy"
	DecodingSample = "sample"
)

// SplitParams controls the recursive character splitter.
type SplitParams struct {
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`
}

func DefaultSplit() SplitParams {
	return SplitParams{ChunkSize: 1000, ChunkOverlap: 0}
}

func (p SplitParams) Validate() error {
	if p.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be at least 1", model.ErrInvalidParams)
	}
	if p.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative", model.ErrInvalidParams)
	}
	if p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", model.ErrInvalidParams, p.ChunkOverlap, p.ChunkSize)
	}
	return nil
}

// GenerationParams are the text generation settings sent to the hosted model.
type GenerationParams struct {
	DecodingMethod    string  `json:"decoding_method" yaml:"decoding_method"`
	MaxNewTokens      int     `json:"max_new_tokens" yaml:"max_new_tokens"`
	MinNewTokens      int     `json:"min_new_tokens" yaml:"min_new_tokens"`
	RepetitionPenalty float64 `json:"repetition_penalty" yaml:"repetition_penalty"`
	Temperature       float64 `json:"temperature" yaml:"temperature"`
	TopK              int     `json:"top_k" yaml:"top_k"`
	TopP              float64 `json:"top_p" yaml:"top_p"`
}

func DefaultGeneration() GenerationParams {
	return GenerationParams{
		DecodingMethod:    DecodingGreedy,
		MaxNewTokens:      500,
		MinNewTokens:      0,
		RepetitionPenalty: 1,
		Temperature:       0.5,
		TopK:              50,
		TopP:              0.5,
	}
}

func (p GenerationParams) Validate() error {
	switch p.DecodingMethod {
	case DecodingGreedy, DecodingSample:
	default:
		return fmt.Errorf("%w: decoding method must be greedy or sample, got %q", model.ErrInvalidParams, p.DecodingMethod)
	}
	if p.MaxNewTokens < 1 {
		return fmt.Errorf("%w: max new tokens must be at least 1", model.ErrInvalidParams)
	}
	if p.MinNewTokens < 0 || p.MinNewTokens > p.MaxNewTokens {
		return fmt.Errorf("%w: min new tokens must be between 0 and max new tokens", model.ErrInvalidParams)
	}
	if p.RepetitionPenalty < 1 || p.RepetitionPenalty > 2 {
		return fmt.Errorf("%w: repetition penalty must be between 1 and 2", model.ErrInvalidParams)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", model.ErrInvalidParams)
	}
	if p.TopK < 0 || p.TopK > 100 {
		return fmt.Errorf("%w: top k must be between 0 and 100", model.ErrInvalidParams)
	}
	if p.TopP < 0 || p.TopP > 1 {
		return fmt.Errorf("%w: top p must be between 0 and 1", model.ErrInvalidParams)
	}
	return nil
}
