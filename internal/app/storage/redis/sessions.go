// Package redis provides a session store where expiry is enforced by Redis
// key TTLs instead of a sweeper.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/fitchallenge/backend/internal/app/domain/session"
	"github.com/fitchallenge/backend/internal/app/storage"
)

const keyPrefix = "session:"

// SessionStore keeps sessions in Redis. Each session is one JSON value whose
// key TTL matches the session expiry, so expired sessions vanish on their own.
type SessionStore struct {
	client *redis.Client
}

var _ storage.SessionStore = (*SessionStore)(nil)

// NewSessionStore wraps an existing Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.CreatedAt = time.Now().UTC()

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return session.Session{}, errors.New("session expiry is in the past")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (s *SessionStore) FindActiveSession(ctx context.Context, id string) (session.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return session.Session{}, err
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, err
	}
	if sess.Expired(time.Now().UTC()) {
		return session.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions is a no-op: Redis evicts expired keys itself.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
