package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaUsesEmbeddingDimension(t *testing.T) {
	stmts := schema(384)
	require.Len(t, stmts, 4)
	require.Contains(t, stmts[1], "vector(384)")
	require.Contains(t, stmts[3], "UNIQUE (index_key, name)")
}
