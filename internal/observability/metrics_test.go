package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	require.NotPanics(t, Register)
	require.NotPanics(t, Register)
}

func TestMetricsAreExposed(t *testing.T) {
	Register()
	Questions.WithLabelValues("answered").Inc()
	DocumentsIngested.WithLabelValues("pdf").Inc()
	LLMRequestSeconds.WithLabelValues("bam").Observe(0.3)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), `questions_total{outcome="answered"}`)
	require.Contains(t, string(body), `documents_ingested_total{kind="pdf"}`)
	require.Contains(t, string(body), `llm_request_seconds_bucket{provider="bam"`)
	require.Contains(t, string(body), "# HELP chunks_embedded_total Chunks embedded and saved to a vector store")
}
