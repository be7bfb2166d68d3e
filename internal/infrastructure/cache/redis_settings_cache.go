package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

const settingsCacheKey = "ledger:settings"

// RedisSettingsCache caches the integration settings in Redis so all
// instances see an invalidation at the same time. A cache miss or a Redis
// failure reads through to the source.
type RedisSettingsCache struct {
	client *redis.Client
	source ledger.SettingsProvider
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSettingsCache creates a Redis-backed settings cache in front of
// the given source
func NewRedisSettingsCache(cfg RedisConfig, source ledger.SettingsProvider, ttl time.Duration) (*RedisSettingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSettingsCache{
		client: client,
		source: source,
		ttl:    ttl,
	}, nil
}

// NewRedisSettingsCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisSettingsCacheWithClient(client *redis.Client, source ledger.SettingsProvider, ttl time.Duration) *RedisSettingsCache {
	return &RedisSettingsCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

// Get returns the cached settings, reading through to the source on a miss
func (c *RedisSettingsCache) Get(ctx context.Context) (ledger.Settings, error) {
	raw, err := c.client.Get(ctx, settingsCacheKey).Bytes()
	if err == nil {
		var settings ledger.Settings
		if unmarshalErr := json.Unmarshal(raw, &settings); unmarshalErr == nil {
			return settings, nil
		}
		// Corrupt entry, fall through to the source and overwrite it
	} else if err != redis.Nil {
		// Redis unavailable, read through without caching
		return c.source.Get(ctx)
	}

	settings, err := c.source.Get(ctx)
	if err != nil {
		return ledger.Settings{}, err
	}

	if encoded, marshalErr := json.Marshal(settings); marshalErr == nil {
		// Best effort; a failed SET just means the next Get reads through again
		c.client.Set(ctx, settingsCacheKey, encoded, c.ttl)
	}

	return settings, nil
}

// Invalidate removes the cached settings so every instance re-reads the store
func (c *RedisSettingsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, settingsCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSettingsCache) Close() error {
	return c.client.Close()
}

var _ SettingsProvider = (*RedisSettingsCache)(nil)
