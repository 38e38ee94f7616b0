package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"aitodo/pkg/ai"
)

const (
	keyPrefix  = "conversation:"
	defaultTTL = time.Hour
	maxEntries = 10
)

// Manager keeps per-user, per-conversation message histories in Redis.
// Histories are capped at the most recent 10 entries and expire an hour after
// the last write (every write re-arms the full TTL).
type Manager struct {
	client *redis.Client
	ttl    time.Duration
	max    int
}

// NewManager builds a Redis-backed conversation history manager.
func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client, ttl: defaultTTL, max: maxEntries}
}

// NewID returns a fresh conversation identifier.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

// Load returns the stored history for the conversation. An absent key is an
// empty history, not an error.
func (m *Manager) Load(ctx context.Context, userID, conversationID string) ([]ai.Message, error) {
	if conversationID == "" {
		return nil, nil
	}
	raw, err := m.client.Get(ctx, m.key(userID, conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []ai.Message
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("unmarshal conversation history: %w", err)
	}
	return history, nil
}

// Append adds the user/assistant turn pair to the stored history, trims it to
// the most recent entries, and persists it with a full fresh TTL.
func (m *Manager) Append(ctx context.Context, userID, conversationID string, turns ...ai.Message) error {
	history, err := m.Load(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	history = append(history, turns...)
	if len(history) > m.max {
		history = history[len(history)-m.max:]
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal conversation history: %w", err)
	}
	return m.client.Set(ctx, m.key(userID, conversationID), raw, m.ttl).Err()
}

func (m *Manager) key(userID, conversationID string) string {
	return keyPrefix + userID + ":" + conversationID
}
