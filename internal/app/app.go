// Package app builds the components both binaries share from a Config.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"contextchat/internal/chat"
	"contextchat/internal/config"
	"contextchat/internal/db"
	"contextchat/internal/embeddings"
	"contextchat/internal/llm"
	"contextchat/internal/repository"
)

func NewEmbedder(cfg *config.Config) embeddings.Embedder {
	if cfg.Embedder == "openai" {
		return embeddings.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.EmbedModel)
	}
	return embeddings.NewLocal()
}

// DefaultAPIKey is the server-wide key of the configured LLM provider, used
// when a session brings no key of its own.
func DefaultAPIKey(cfg *config.Config) string {
	if cfg.LLMProvider == "openai" {
		return cfg.OpenAIKey
	}
	return cfg.GenAIKey
}

func NewGenerator(cfg *config.Config) llm.Generator {
	key := DefaultAPIKey(cfg)
	if cfg.LLMProvider == "openai" {
		return llm.Instrumented{
			Generator: llm.NewOpenAI(cfg.OpenAIBaseURL, cfg.LLMModel, key),
			Provider:  "openai",
		}
	}
	return llm.Instrumented{
		Generator: llm.NewBAM(cfg.GenAIURL, cfg.LLMModel, key),
		Provider:  "bam",
	}
}

// Storage is the vector store plus, when Postgres is configured, the raw archive.
type Storage struct {
	Vectors repository.VectorStore
	Archive chat.Archiver

	pool *pgxpool.Pool
	sql  *sql.DB
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.sql != nil {
		s.sql.Close()
	}
}

// NewStorage opens Postgres when DATABASE_URL is set and falls back to an
// in-memory chromem store otherwise.
func NewStorage(ctx context.Context, cfg *config.Config, emb embeddings.Embedder) (*Storage, error) {
	if cfg.DatabaseURL == "" {
		log.Println("[Storage] DATABASE_URL vazio, usando índice em memória")
		return &Storage{Vectors: repository.NewMemoryStore()}, nil
	}

	sample, err := emb.EmbedQuery(ctx, "embedding dimension")
	if err != nil {
		return nil, fmt.Errorf("measure embedding dimension: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres (pgxpool): %w", err)
	}
	if err := db.EnsureSchema(ctx, pool, len(sample)); err != nil {
		pool.Close()
		return nil, err
	}

	sqlDB, err := db.New(cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres (sql): %w", err)
	}

	return &Storage{
		Vectors: &repository.VectorRepository{DB: pool},
		Archive: &repository.RawRepository{DB: sqlDB},
		pool:    pool,
		sql:     sqlDB,
	}, nil
}

// NewSessions returns a Redis backed store when REDIS_URL is set.
func NewSessions(ctx context.Context, cfg *config.Config) (chat.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		return chat.NewMemorySessionStore(cfg.SessionTTL, cfg.HistoryLimit), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// aceita host:porta como no .env antigo
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return chat.NewRedisSessionStore(client, cfg.SessionTTL, cfg.HistoryLimit), func() { client.Close() }, nil
}
