package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"contextchat/internal/model"
)

const (
	defaultSessionTTL   = 30 * time.Minute
	defaultHistoryLimit = 6
)

// SessionStore keeps per-browser state between requests.
type SessionStore interface {
	Create(ctx context.Context, apiKey string) (model.Session, error)
	Get(ctx context.Context, id string) (model.Session, error)
	Save(ctx context.Context, s model.Session) error
	Append(ctx context.Context, id string, msgs ...model.ChatMessage) error
	Delete(ctx context.Context, id string) error
}

func trimHistory(history []model.ChatMessage, limit int) []model.ChatMessage {
	if limit >= 0 && len(history) > limit {
		return history[len(history)-limit:]
	}
	return history
}

func newSession(apiKey string) model.Session {
	return model.Session{ID: uuid.NewString(), APIKey: apiKey, UpdatedAt: time.Now()}
}

type RedisSessionStore struct {
	Client       *redis.Client
	TTL          time.Duration
	HistoryLimit int
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, historyLimit int) *RedisSessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{Client: client, TTL: ttl, HistoryLimit: historyLimit}
}

func sessionKey(id string) string { return "session:" + id }

func (s *RedisSessionStore) Create(ctx context.Context, apiKey string) (model.Session, error) {
	sess := newSession(apiKey)
	return sess, s.Save(ctx, sess)
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (model.Session, error) {
	val, err := s.Client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, err
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess model.Session) error {
	sess.History = trimHistory(sess.History, s.HistoryLimit)
	sess.UpdatedAt = time.Now()

	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, sessionKey(sess.ID), b, s.TTL).Err()
}

func (s *RedisSessionStore) Append(ctx context.Context, id string, msgs ...model.ChatMessage) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.History = append(sess.History, msgs...)
	return s.Save(ctx, sess)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, sessionKey(id)).Err()
}

// MemorySessionStore is used when no Redis is configured.
type MemorySessionStore struct {
	TTL          time.Duration
	HistoryLimit int

	mu       sync.Mutex
	sessions map[string]model.Session
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration, historyLimit int) *MemorySessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		TTL:          ttl,
		HistoryLimit: historyLimit,
		sessions:     make(map[string]model.Session),
		now:          time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, apiKey string) (model.Session, error) {
	sess := newSession(apiKey)
	return sess, s.Save(ctx, sess)
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, model.ErrSessionNotFound
	}
	if s.now().Sub(sess.UpdatedAt) > s.TTL {
		delete(s.sessions, id)
		return model.Session{}, model.ErrSessionNotFound
	}
	sess.History = append([]model.ChatMessage(nil), sess.History...)
	return sess, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.History = append([]model.ChatMessage(nil), trimHistory(sess.History, s.HistoryLimit)...)
	sess.UpdatedAt = s.now()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Append(ctx context.Context, id string, msgs ...model.ChatMessage) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.History = append(sess.History, msgs...)
	return s.Save(ctx, sess)
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
