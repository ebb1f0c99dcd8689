package redis

// Package redis provides Redis-based adapters: the session store owned by the
// identity service and the global rate limiter.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinova/platform/internal/domain/identity"
)

// SessionStore is the Redis-backed session record store. The gateway treats
// sessions as opaque proof of authentication: the login flow writes them,
// every other caller only reads. TTL follows the session's ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a session store with the default key prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, prefix: "session:"}
}

// NewSessionStoreWithPrefix creates a session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) Save(ctx context.Context, sess identity.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	return s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (identity.Session, error) {
	if id == "" {
		return identity.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return identity.Session{}, ErrNotFound
		}
		return identity.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess identity.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return identity.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Redis TTL should have evicted expired sessions already; check anyway.
	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return identity.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return identity.Session{}, ErrNotFound
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

// ErrNotFound is returned when a session is not found.
var ErrNotFound error = notFoundError{}
