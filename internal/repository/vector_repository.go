package repository

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contextchat/internal/model"
)

// VectorRepository stores chunks in Postgres with pgvector.
type VectorRepository struct {
	DB *pgxpool.Pool
}

// vectorLiteral converte []float32 para "[v1,v2,...]" (pgvector espera colchetes)
func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (r *VectorRepository) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM document_chunks WHERE index_key = $1)", key,
	).Scan(&exists)
	return exists, err
}

func (r *VectorRepository) Save(ctx context.Context, key string, chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("save %s: %d chunks but %d vectors", key, len(chunks), len(vectors))
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, c := range chunks {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			id = uuid.New()
		}
		// Remove sequências de bytes inválidas para evitar erro "invalid byte sequence for encoding UTF8"
		content := strings.ToValidUTF8(c.Content, "")
		batch.Queue(`
			INSERT INTO document_chunks (id, index_key, seq, source, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id.String(), key, c.Seq, c.Source, content, vectorLiteral(vectors[i]))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("[Repository] %d chunks salvos para %s", len(chunks), key)
	return nil
}

func (r *VectorRepository) Search(ctx context.Context, key string, vector []float32, k int) ([]model.Retrieved, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id::text, seq, source, content, 1 - (embedding <=> $1) AS score
		FROM document_chunks
		WHERE index_key = $2
		ORDER BY embedding <=> $1 ASC
		LIMIT $3
	`, vectorLiteral(vector), key, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []model.Retrieved
	for rows.Next() {
		var rr model.Retrieved
		if err := rows.Scan(&rr.Chunk.ID, &rr.Chunk.Seq, &rr.Chunk.Source, &rr.Chunk.Content, &rr.Score); err != nil {
			return nil, err
		}
		rr.Chunk.IndexKey = key
		res = append(res, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// todo índice salvo tem ao menos um chunk
	if len(res) == 0 {
		return nil, fmt.Errorf("index %s: %w", key, model.ErrNoDocument)
	}
	return res, nil
}

func (r *VectorRepository) Delete(ctx context.Context, key string) error {
	_, err := r.DB.Exec(ctx, "DELETE FROM document_chunks WHERE index_key = $1", key)
	return err
}
