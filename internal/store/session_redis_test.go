package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"aitodo/pkg/domain"
)

func newSessionStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisSessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisSessionStore(client, ttl)
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	_, s := newSessionStore(t, time.Hour)
	user := domain.User{ID: "user-1", Phone: "13812345678"}

	token, err := s.NewSession(user)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected opaque 64-char token, got %q", token)
	}
	session, ok, err := s.GetSession(token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !ok {
		t.Fatalf("expected session to exist")
	}
	if session.UserID != "user-1" || session.Phone != "13812345678" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetSession(token); ok {
		t.Fatalf("expected session gone after delete")
	}
}

func TestRedisSessionStoreExpiredEntryIsDeleted(t *testing.T) {
	mr, s := newSessionStore(t, time.Hour)
	token, err := s.NewSession(domain.User{ID: "user-2", Phone: "13900000000"})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	// Move the store's clock past the stored expiry while the Redis key
	// itself is still present.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, ok, err := s.GetSession(token); err != nil || ok {
		t.Fatalf("expected expired session to be missing, ok=%v err=%v", ok, err)
	}
	if mr.Exists(sessionKeyPrefix + token) {
		t.Fatalf("expected expired session key to be deleted as a side effect")
	}
}

func TestRedisSessionStoreUnknownToken(t *testing.T) {
	_, s := newSessionStore(t, time.Hour)
	if _, ok, err := s.GetSession("no-such-token"); err != nil || ok {
		t.Fatalf("expected miss for unknown token, ok=%v err=%v", ok, err)
	}
}
