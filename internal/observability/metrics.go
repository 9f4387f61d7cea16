package observability

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Documents loaded, by kind",
		},
		[]string{"kind"},
	)
	DocumentsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_skipped_total",
			Help: "Uploads skipped because of an unsupported extension",
		},
	)
	ChunksEmbedded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chunks_embedded_total",
			Help: "Chunks embedded and saved to a vector store",
		},
	)
	Questions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questions_total",
			Help: "Questions answered, by outcome",
		},
		[]string{"outcome"},
	)
	LLMRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_seconds",
			Help:    "Latency of text generation calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry; safe to call twice.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(DocumentsIngested, DocumentsSkipped, ChunksEmbedded, Questions, LLMRequestSeconds)
	})
}

// Start serves /metrics on its own port.
func Start(port string) *http.Server {
	Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Metrics] %v", err)
		}
	}()
	return srv
}
