// 包 cache：渲染图层缓存（进程内 LRU + 可选 Redis）
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"votemap-api/internal/logger"
	"votemap-api/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// 文档注释：图层缓存
// 背景：按 (数据集标签, 序列, 年份) 缓存已着色的 FeatureCollection；数据集重载后标签变化，旧键自然失效。
// 约束：rc 可为 nil；Redis 错误只记日志不影响请求，回退到重新渲染。
type LayerCache struct {
	rc  *redis.Client
	lru *LRU
	ttl time.Duration
}

func NewLayerCache(rc *redis.Client, lru *LRU, ttl time.Duration) *LayerCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LayerCache{rc: rc, lru: lru, ttl: ttl}
}

// LayerKey：tag 为数据集标签（见 dataset.Holder.Tag），跨进程唯一
func LayerKey(tag, seriesValue string, year int) string {
	return fmt.Sprintf("layer:%s:%s:%d", tag, seriesValue, year)
}

func (c *LayerCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if b, ok := c.lru.Get(key); ok {
		metrics.LayerCacheHitsTotal.WithLabelValues("memory").Inc()
		return b, true
	}
	if c.rc != nil {
		b, err := c.rc.Get(ctx, key).Bytes()
		if err == nil {
			metrics.LayerCacheHitsTotal.WithLabelValues("redis").Inc()
			c.lru.Set(key, b)
			return b, true
		}
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("layer_cache_redis_get_error", "key", key, "err", err)
		}
	}
	metrics.LayerCacheMissesTotal.Inc()
	return nil, false
}

func (c *LayerCache) Set(ctx context.Context, key string, b []byte) {
	c.lru.Set(key, b)
	if c.rc == nil {
		return
	}
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		logger.L().Warn("layer_cache_redis_set_error", "key", key, "err", err)
	}
}
