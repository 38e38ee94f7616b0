package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"aitodo/pkg/ai"
)

func newManager(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewManager(client)
}

func TestLoadMissingConversationIsEmpty(t *testing.T) {
	_, m := newManager(t)
	history, err := m.Load(context.Background(), "user-1", "conv-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(history))
	}
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	_, m := newManager(t)
	ctx := context.Background()
	err := m.Append(ctx, "user-1", "conv-1",
		ai.TextMessage("user", "明天开会"),
		ai.TextMessage("assistant", `{"extracted":{}}`),
	)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	history, err := m.Load(ctx, "user-1", "conv-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Fatalf("unexpected roles: %+v", history)
	}
}

func TestHistoryCappedAtTenEntries(t *testing.T) {
	_, m := newManager(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		err := m.Append(ctx, "user-1", "conv-1",
			ai.TextMessage("user", fmt.Sprintf("消息 %d", i)),
			ai.TextMessage("assistant", fmt.Sprintf("回复 %d", i)),
		)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	history, err := m.Load(ctx, "user-1", "conv-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(history) != 10 {
		t.Fatalf("expected history capped at 10, got %d", len(history))
	}
	// Oldest entries dropped: head should be the user turn of round 2.
	if history[0].Content != "消息 2" {
		t.Fatalf("expected oldest-first eviction, head is %v", history[0].Content)
	}
	// Pairing preserved: user turn followed by its assistant reply.
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Fatalf("expected role pairing at the head, got %+v", history[:2])
	}
}

func TestWriteReArmsTTL(t *testing.T) {
	mr, m := newManager(t)
	ctx := context.Background()
	if err := m.Append(ctx, "user-1", "conv-1", ai.TextMessage("user", "a"), ai.TextMessage("assistant", "b")); err != nil {
		t.Fatalf("append: %v", err)
	}
	mr.FastForward(30 * time.Minute)
	if err := m.Append(ctx, "user-1", "conv-1", ai.TextMessage("user", "c"), ai.TextMessage("assistant", "d")); err != nil {
		t.Fatalf("second append: %v", err)
	}
	// 50 more minutes: past the first write's hour, inside the second's.
	mr.FastForward(50 * time.Minute)
	history, err := m.Load(ctx, "user-1", "conv-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected re-armed TTL to keep history alive, got %d entries", len(history))
	}
	// And it expires after a full idle hour.
	mr.FastForward(61 * time.Minute)
	history, err = m.Load(ctx, "user-1", "conv-1")
	if err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected expired history, got %d entries", len(history))
	}
}

func TestConversationsAreNamespacedPerUser(t *testing.T) {
	_, m := newManager(t)
	ctx := context.Background()
	if err := m.Append(ctx, "user-1", "conv-1", ai.TextMessage("user", "a"), ai.TextMessage("assistant", "b")); err != nil {
		t.Fatalf("append: %v", err)
	}
	history, err := m.Load(ctx, "user-2", "conv-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("histories must not leak across users")
	}
}
