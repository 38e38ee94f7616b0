package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aitodo/pkg/auth"
	"aitodo/pkg/domain"
)

const sessionKeyPrefix = "token:"

// RedisSessionStore keeps sessions in Redis with TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewSession mints an opaque token and writes the session with TTL.
func (s *RedisSessionStore) NewSession(user domain.User) (string, error) {
	token := auth.NewToken()
	if token == "" {
		return "", errors.New("generate session token")
	}
	session := Session{
		UserID:    user.ID,
		Phone:     user.Phone,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, raw, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetSession resolves a token. An entry past its stored expiry is deleted and
// reported as missing, so a stale key behaves exactly like an absent one.
func (s *RedisSessionStore) GetSession(token string) (Session, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.now().UTC().After(session.ExpiresAt) {
		_ = s.client.Del(ctx, sessionKeyPrefix+token).Err()
		return Session{}, false, nil
	}
	return session, true, nil
}

// DeleteSession removes a token mapping.
func (s *RedisSessionStore) DeleteSession(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
