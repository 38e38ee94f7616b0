package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const verifyKeyPrefix = "verify:"

// RedisVerificationStore keeps bcrypt-hashed SMS verification codes with TTL.
// Codes are never stored in the clear.
type RedisVerificationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVerificationStore builds a Redis-backed verification code store.
func NewRedisVerificationStore(client *redis.Client, ttl time.Duration) *RedisVerificationStore {
	return &RedisVerificationStore{client: client, ttl: ttl}
}

// Put hashes and stores the code for the phone, replacing any previous one.
func (s *RedisVerificationStore) Put(phone, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash verification code: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.client.Set(ctx, verifyKeyPrefix+phone, hash, s.ttl).Err()
}

// Consume compares the code against the stored hash and deletes it on match.
// A missing or mismatched code returns false without error.
func (s *RedisVerificationStore) Consume(phone, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	key := verifyKeyPrefix + phone
	hash, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return false, nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return true, nil
}
