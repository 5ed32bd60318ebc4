package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisGeoCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisGeoCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisGeoCache {
	return &RedisGeoCache{rdb: rdb, ttl: ttl, logger: logger}
}

func geoCacheKey(ip string) string {
	return "geo:" + ip
}

func (c *RedisGeoCache) Get(ctx context.Context, ip string) (Location, bool) {
	val, err := c.rdb.Get(ctx, geoCacheKey(ip)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("GeoIP: cache read failed", "error", err)
		}
		return Location{}, false
	}

	var loc Location
	if err := json.Unmarshal([]byte(val), &loc); err != nil {
		return Location{}, false
	}
	return loc, true
}

func (c *RedisGeoCache) Set(ctx context.Context, ip string, loc Location) {
	data, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, geoCacheKey(ip), data, c.ttl).Err(); err != nil {
		c.logger.Warn("GeoIP: cache write failed", "error", err)
	}
}
