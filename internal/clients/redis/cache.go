package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fablelab/fablelab-backend/internal/logger"
)

// Fixed cache names, one per domain. Legacy clients persisted their state
// under these names; the one-time migration reads and deletes them.
const (
	ProgressCacheName     = "progress-storage"
	GamificationCacheName = "gamification-storage"
	SettingsCacheName     = "settings-storage"
	ThemeCacheName        = "theme-storage"
)

// CacheKey scopes a cache name to one user.
func CacheKey(name string, userID string) string {
	return fmt.Sprintf("%s:%s", name, userID)
}

// CacheService is the local persistent key-value cache. Two stores mirror
// their durable fields into it (gamification, settings); it is also the
// source of the one-time legacy migration.
type CacheService interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheService struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewCacheService(log *logger.Logger, addr string) (CacheService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
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

	return &cacheService{
		log: log.With("service", "RedisCacheService"),
		rdb: rdb,
	}, nil
}

func (c *cacheService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *cacheService) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *cacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
