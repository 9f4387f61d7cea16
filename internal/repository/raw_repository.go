package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"contextchat/internal/model"
)

// RawRepository archives the extracted text of uploaded documents.
type RawRepository struct {
	DB *sql.DB
}

func (r *RawRepository) Save(ctx context.Context, key string, d model.Document) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM documents_raw WHERE index_key = $1 AND name = $2)", key, d.Name,
	).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		_, err = r.DB.ExecContext(ctx, `
			UPDATE documents_raw
			SET kind = $1, content = $2
			WHERE index_key = $3 AND name = $4
		`, d.Kind, d.Text, key, d.Name)
	} else {
		_, err = r.DB.ExecContext(ctx, `
			INSERT INTO documents_raw (id, index_key, name, kind, content)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), key, d.Name, d.Kind, d.Text)
	}
	return err
}

func (r *RawRepository) List(ctx context.Context, key string) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT name, kind, content
		FROM documents_raw
		WHERE index_key = $1
		ORDER BY created_at ASC
	`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.Name, &d.Kind, &d.Text); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
