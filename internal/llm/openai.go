package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"contextchat/internal/config"
	"contextchat/internal/model"
)

// OpenAI sends the rendered prompt as a single user message to a chat
// completion endpoint. Top-k and min new tokens have no equivalent there.
type OpenAI struct {
	BaseURL    string
	Model      string
	DefaultKey string
}

func NewOpenAI(baseURL, model, defaultKey string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{BaseURL: baseURL, Model: model, DefaultKey: defaultKey}
}

func (o *OpenAI) client(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func toChatRequest(modelName, prompt string, p config.GenerationParams) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:        p.MaxNewTokens,
		FrequencyPenalty: float32(p.RepetitionPenalty - 1),
	}
	if p.DecodingMethod == config.DecodingSample {
		req.Temperature = nonZero(p.Temperature)
		req.TopP = nonZero(p.TopP)
	} else {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	return req
}

// nonZero keeps an explicit 0 from being dropped by omitempty, which would
// let the API fall back to its default of 1.
func nonZero(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}

func (o *OpenAI) Generate(ctx context.Context, apiKey, prompt string, params config.GenerationParams) (string, error) {
	key := resolveKey(apiKey, o.DefaultKey)
	if key == "" {
		return "", model.ErrMissingAPIKey
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	log.Printf("[LLM] Estatísticas: %d caracteres | ~%d tokens estimados", len(prompt), len(prompt)/4)

	resp, err := o.client(key).CreateChatCompletion(ctx, toChatRequest(o.Model, prompt, params))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %s", model.ErrMissingAPIKey, apiErr.Message)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
