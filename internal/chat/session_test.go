package chat

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"contextchat/internal/model"
)

func msgs(n int) []model.ChatMessage {
	out := make([]model.ChatMessage, n)
	for i := range out {
		out[i] = model.ChatMessage{Role: model.RoleUser, Content: string(rune('a' + i))}
	}
	return out
}

func exerciseStore(t *testing.T, s SessionStore) {
	ctx := context.Background()

	sess, err := s.Create(ctx, "pak-1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "pak-1", got.APIKey)
	require.Empty(t, got.History)

	got.IndexKey = "idx"
	require.NoError(t, s.Save(ctx, got))
	require.NoError(t, s.Append(ctx, sess.ID, msgs(8)...))

	got, err = s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "idx", got.IndexKey)
	require.Len(t, got.History, 6)
	require.Equal(t, "c", got.History[0].Content)
	require.Equal(t, "h", got.History[5].Content)

	require.NoError(t, s.Delete(ctx, sess.ID))
	_, err = s.Get(ctx, sess.ID)
	require.ErrorIs(t, err, model.ErrSessionNotFound)

	require.ErrorIs(t, s.Append(ctx, "missing", msgs(1)...), model.ErrSessionNotFound)
}

func TestMemorySessionStore(t *testing.T) {
	exerciseStore(t, NewMemorySessionStore(time.Minute, 6))
}

func TestMemorySessionStoreExpires(t *testing.T) {
	s := NewMemorySessionStore(time.Minute, 6)
	now := time.Now()
	s.now = func() time.Time { return now }

	sess, err := s.Create(context.Background(), "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(context.Background(), sess.ID)
	require.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestRedisSessionStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	exerciseStore(t, NewRedisSessionStore(client, time.Minute, 6))
}
