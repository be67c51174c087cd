package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"supportpilot/internal/model"
)

// Cache keeps recent conversation windows in Redis. A short-lived dirty
// marker forces the next read to rebuild from the database after a
// write, so the window never serves a stale tail.
type Cache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *Cache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &Cache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *Cache) GetWindow(ctx context.Context, conversationID uint) ([]model.Message, bool, error) {
	key := c.windowKey(conversationID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get window failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached window failed: %w", err)
	}
	return messages, true, nil
}

func (c *Cache) SetWindow(ctx context.Context, conversationID uint, messages []model.Message) error {
	key := c.windowKey(conversationID)
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal window cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set window failed: %w", err)
	}
	return nil
}

func (c *Cache) DeleteWindow(ctx context.Context, conversationID uint) error {
	key := c.windowKey(conversationID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete window failed: %w", err)
	}
	return nil
}

func (c *Cache) MarkDirty(ctx context.Context, conversationID uint) error {
	key := c.dirtyKey(conversationID)
	if err := c.client.Set(ctx, key, "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *Cache) IsDirty(ctx context.Context, conversationID uint) (bool, error) {
	key := c.dirtyKey(conversationID)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *Cache) windowKey(conversationID uint) string {
	return fmt.Sprintf("conv:history:%d", conversationID)
}

func (c *Cache) dirtyKey(conversationID uint) string {
	return fmt.Sprintf("conv:history:dirty:%d", conversationID)
}
