package cache

import (
	"context"
	"sync"
	"time"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

// InMemorySettingsCache caches the integration settings in process memory
// with a fixed TTL. Suitable for single-instance deployments and testing.
// WARNING: invalidation does not propagate across process instances; in
// distributed deployments another instance may serve stale settings until
// its TTL expires.
type InMemorySettingsCache struct {
	source ledger.SettingsProvider
	ttl    time.Duration

	mu        sync.Mutex
	cached    ledger.Settings
	fetchedAt time.Time
}

// NewInMemorySettingsCache creates an in-memory settings cache in front of
// the given source
func NewInMemorySettingsCache(source ledger.SettingsProvider, ttl time.Duration) *InMemorySettingsCache {
	return &InMemorySettingsCache{
		source: source,
		ttl:    ttl,
	}
}

// Get returns the cached settings, reading through to the source when the
// cached value is older than the TTL
func (c *InMemorySettingsCache) Get(ctx context.Context) (ledger.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}

	settings, err := c.source.Get(ctx)
	if err != nil {
		// Serve the last known settings if we have any; a transient store
		// failure should not flip the integration off
		if !c.fetchedAt.IsZero() {
			return c.cached, nil
		}
		return ledger.Settings{}, err
	}

	c.cached = settings
	c.fetchedAt = time.Now()
	return settings, nil
}

// Invalidate drops the cached value
func (c *InMemorySettingsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
	c.cached = ledger.Settings{}
	return nil
}

// Close releases resources held by the cache
func (c *InMemorySettingsCache) Close() error {
	return nil
}

var _ SettingsProvider = (*InMemorySettingsCache)(nil)
