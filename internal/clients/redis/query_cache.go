package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/replyloop-backend/internal/cache"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
)

// NewQueryCache connects to redis and returns a cache.QueryCache backed by
// SET-with-TTL upserts. Expiry is enforced server-side, so an entry is never
// served past its TTL even across processes.
func NewQueryCache(log *logger.Logger) (cache.QueryCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_SEARCH_CACHE_PREFIX"))
	if prefix == "" {
		prefix = "searchcache"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &queryCache{
		log:    log.With("service", "RedisQueryCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

type queryCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func (c *queryCache) key(canonical string) string {
	return c.prefix + ":" + canonical
}

func (c *queryCache) Get(ctx context.Context, key string) (*cache.CachedResult, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var result cache.CachedResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// A malformed entry is treated as a miss; the next write replaces it.
		c.log.Warn("Dropping malformed cache entry", "key", key, "error", err)
		return nil, false, nil
	}
	return &result, true, nil
}

func (c *queryCache) Set(ctx context.Context, key string, result cache.CachedResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
