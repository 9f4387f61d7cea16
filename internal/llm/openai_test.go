package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"contextchat/internal/config"
	"contextchat/internal/model"
)

func TestOpenAIGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" hi "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := config.DefaultGeneration()
	p.RepetitionPenalty = 1.5

	out, err := NewOpenAI(srv.URL+"/v1", "gpt-4o-mini", "").Generate(context.Background(), "sk-test", "question", p)
	require.NoError(t, err)
	require.Equal(t, "hi", out)
	require.Equal(t, "gpt-4o-mini", got["model"])
	require.EqualValues(t, 500, got["max_tokens"])
	require.InDelta(t, 0.5, got["frequency_penalty"], 1e-6)
}

func TestToChatRequestDecoding(t *testing.T) {
	p := config.DefaultGeneration()
	greedy := toChatRequest("m", "p", p)
	require.Less(t, greedy.Temperature, float32(1e-6))

	p.DecodingMethod = config.DecodingSample
	sample := toChatRequest("m", "p", p)
	require.Equal(t, float32(0.5), sample.Temperature)
	require.Equal(t, float32(0.5), sample.TopP)
	require.Zero(t, sample.FrequencyPenalty)
}

func TestToChatRequestKeepsZeroSampling(t *testing.T) {
	p := config.DefaultGeneration()
	p.DecodingMethod = config.DecodingSample
	p.Temperature = 0
	p.TopP = 0

	req := toChatRequest("m", "p", p)
	require.Greater(t, req.Temperature, float32(0))
	require.Less(t, req.Temperature, float32(1e-6))
	require.Greater(t, req.TopP, float32(0))
	require.Less(t, req.TopP, float32(1e-6))

	b, err := json.Marshal(req)
	require.NoError(t, err)
	require.Contains(t, string(b), `"temperature"`)
	require.Contains(t, string(b), `"top_p"`)
}

func TestOpenAIMissingKey(t *testing.T) {
	_, err := NewOpenAI("", "", "").Generate(context.Background(), "", "p", config.DefaultGeneration())
	require.ErrorIs(t, err, model.ErrMissingAPIKey)
}
