package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"contextchat/internal/config"
	"contextchat/internal/model"
)

const (
	bamVersion     = "2024-03-19"
	maxAttempts    = 3
	maxBackoff     = 4 * time.Second
	defaultBackoff = 500 * time.Millisecond
)

// BAM talks to the IBM GenAI text generation endpoint.
type BAM struct {
	BaseURL    string
	Model      string
	DefaultKey string
	HTTPClient *http.Client
	Backoff    time.Duration
}

func NewBAM(baseURL, model, defaultKey string) *BAM {
	return &BAM{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Model:      model,
		DefaultKey: defaultKey,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		Backoff:    defaultBackoff,
	}
}

type bamParameters struct {
	DecodingMethod    string   `json:"decoding_method"`
	MaxNewTokens      int      `json:"max_new_tokens"`
	MinNewTokens      int      `json:"min_new_tokens"`
	RepetitionPenalty float64  `json:"repetition_penalty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	TopK              *int     `json:"top_k,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
}

type bamRequest struct {
	ModelID    string        `json:"model_id"`
	Input      string        `json:"input"`
	Parameters bamParameters `json:"parameters"`
}

type bamResponse struct {
	Results []struct {
		GeneratedText       string `json:"generated_text"`
		GeneratedTokenCount int    `json:"generated_token_count"`
		InputTokenCount     int    `json:"input_token_count"`
		StopReason          string `json:"stop_reason"`
	} `json:"results"`
}

type bamError struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func toBAMParameters(p config.GenerationParams) bamParameters {
	out := bamParameters{
		DecodingMethod:    p.DecodingMethod,
		MaxNewTokens:      p.MaxNewTokens,
		MinNewTokens:      p.MinNewTokens,
		RepetitionPenalty: p.RepetitionPenalty,
	}
	// temperatura, top_k e top_p só valem para sampling
	if p.DecodingMethod == config.DecodingSample {
		out.Temperature = &p.Temperature
		out.TopK = &p.TopK
		out.TopP = &p.TopP
	}
	return out
}

func (b *BAM) Generate(ctx context.Context, apiKey, prompt string, params config.GenerationParams) (string, error) {
	key := resolveKey(apiKey, b.DefaultKey)
	if key == "" {
		return "", model.ErrMissingAPIKey
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	body, err := json.Marshal(bamRequest{
		ModelID:    b.Model,
		Input:      prompt,
		Parameters: toBAMParameters(params),
	})
	if err != nil {
		return "", err
	}

	log.Printf("[LLM] Estatísticas: %d caracteres | ~%d tokens estimados", len(prompt), len(prompt)/4)

	endpoint := b.BaseURL + "/v2/text/generation?version=" + bamVersion
	backoff := b.Backoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, retry, err := b.do(ctx, endpoint, key, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}

		log.Printf("[LLM] Tentativa %d falhou: %v", attempt, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return "", lastErr
}

func (b *BAM) do(ctx context.Context, endpoint, key string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		var e bamError
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return "", false, fmt.Errorf("%w: %s", model.ErrMissingAPIKey, msg)
		}
		return "", retry, fmt.Errorf("genai: status %d: %s", resp.StatusCode, msg)
	}

	var out bamResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", false, fmt.Errorf("genai: decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return "", false, fmt.Errorf("genai: empty results")
	}
	return strings.TrimSpace(out.Results[0].GeneratedText), false, nil
}
