// internal/cache/redis.go
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"hr-assistant/internal/common/logger"
)

// RedisTier implements BytesTier over redis. Keys are namespaced as
// "<prefix>:<category>:<key>" so ClearCategory can scan one namespace.
type RedisTier struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

func NewRedisTier(client *redis.Client, prefix string, log logger.Logger) *RedisTier {
	if prefix == "" {
		prefix = "hrassist"
	}
	return &RedisTier{
		client: client,
		prefix: prefix,
		logger: log.With(map[string]interface{}{"component": "cache-tier2"}),
	}
}

func (t *RedisTier) fullKey(category, key string) string {
	return t.prefix + ":" + category + ":" + key
}

func (t *RedisTier) Get(ctx context.Context, category, key string) ([]byte, bool) {
	val, err := t.client.Get(ctx, t.fullKey(category, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			t.logger.Warn("tier2 get failed", map[string]interface{}{
				"category": category,
				"key":      key,
				"error":    err.Error(),
			})
		}
		return nil, false
	}
	return val, true
}

func (t *RedisTier) Set(ctx context.Context, category, key string, value []byte, ttl time.Duration) {
	if err := t.client.Set(ctx, t.fullKey(category, key), value, ttl).Err(); err != nil {
		t.logger.Warn("tier2 set failed", map[string]interface{}{
			"category": category,
			"key":      key,
			"error":    err.Error(),
		})
	}
}

func (t *RedisTier) ClearCategory(ctx context.Context, category string) {
	t.deleteByPattern(ctx, t.prefix+":"+category+":*")
}

func (t *RedisTier) Clear(ctx context.Context) {
	t.deleteByPattern(ctx, t.prefix+":*")
}

func (t *RedisTier) deleteByPattern(ctx context.Context, pattern string) {
	iter := t.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		t.logger.Warn("tier2 scan failed", map[string]interface{}{
			"pattern": pattern,
			"error":   err.Error(),
		})
		return
	}
	if len(keys) > 0 {
		if err := t.client.Del(ctx, keys...).Err(); err != nil {
			t.logger.Warn("tier2 delete failed", map[string]interface{}{
				"pattern": pattern,
				"error":   err.Error(),
			})
		}
	}
}
