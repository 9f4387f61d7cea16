package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contextchat/internal/app"
	"contextchat/internal/chat"
	"contextchat/internal/config"
	"contextchat/internal/observability"
	"contextchat/internal/retrieval"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.Start(cfg.MetricsPort)

	embedder := app.NewEmbedder(cfg)

	storage, err := app.NewStorage(ctx, cfg, embedder)
	if err != nil {
		log.Fatalf("Erro ao abrir armazenamento: %v", err)
	}
	defer storage.Close()

	sessions, closeSessions, err := app.NewSessions(ctx, cfg)
	if err != nil {
		log.Fatalf("Erro ao conectar no Redis: %v", err)
	}
	defer closeSessions()

	srv := &chat.Server{
		Sessions: sessions,
		Indexer: &retrieval.Indexer{
			Store:     storage.Vectors,
			Embedder:  embedder,
			Workers:   cfg.WorkerCount,
			BatchSize: 32,
		},
		Chain: &chat.Chain{
			Store:     storage.Vectors,
			Embedder:  embedder,
			Generator: app.NewGenerator(cfg),
			K:         cfg.RetrieverK,
		},
		Archive:        storage.Archive,
		Defaults:       cfg.Defaults,
		DefaultAPIKey:  app.DefaultAPIKey(cfg),
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("contextchat rodando %s (llm=%s, embedder=%s)", cfg.HTTPAddr, cfg.LLMProvider, embedder.Name())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Erro no servidor HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Encerrando...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Erro ao encerrar servidor HTTP: %v", err)
	}
	metrics.Shutdown(shutdownCtx)
}
