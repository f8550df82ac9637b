package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"harugo/internal/models"
	"harugo/internal/redis"
)

const historyTTL = 30 * time.Minute

// historyCache snapshots per-user conversation history in redis so a worker
// restarted within the TTL resumes the conversation. Without redis every
// method is a no-op or miss.
type historyCache struct {
	client *redis.Client
}

func newHistoryCache(client *redis.Client) *historyCache {
	return &historyCache{client: client}
}

func historyKey(userID string) string {
	return "companion:history:" + userID
}

func (c *historyCache) load(userID string) *models.History {
	raw, err := c.client.Get(context.Background(), historyKey(userID))
	if err != nil {
		if err != redis.ErrCacheMiss {
			log.Printf("history cache: load for user %s failed: %v", userID, err)
		}
		return nil
	}
	var history models.History
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		log.Printf("history cache: decode for user %s failed: %v", userID, err)
		return nil
	}
	return &history
}

func (c *historyCache) store(userID string, history *models.History) {
	if history == nil {
		c.drop(userID)
		return
	}
	data, err := json.Marshal(history)
	if err != nil {
		log.Printf("history cache: encode for user %s failed: %v", userID, err)
		return
	}
	if err := c.client.Set(context.Background(), historyKey(userID), data, historyTTL); err != nil {
		log.Printf("history cache: store for user %s failed: %v", userID, err)
	}
}

func (c *historyCache) drop(userID string) {
	if err := c.client.Del(context.Background(), historyKey(userID)); err != nil {
		log.Printf("history cache: drop for user %s failed: %v", userID, err)
	}
}
