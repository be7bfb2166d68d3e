package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/infrastructure/config"
)

// SettingsCacheFactory creates settings providers based on configuration
type SettingsCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SettingsCacheFactoryOption is a functional option for configuring the factory
type SettingsCacheFactoryOption func(*SettingsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SettingsCacheFactoryOption {
	return func(f *SettingsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) SettingsCacheFactoryOption {
	return func(f *SettingsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSettingsCacheFactory creates a new factory
func NewSettingsCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...SettingsCacheFactoryOption) *SettingsCacheFactory {
	f := &SettingsCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed settings cache
func (f *SettingsCacheFactory) CreateRedisCache(source ledger.SettingsProvider) (SettingsProvider, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisSettingsCache(redisCfg, source, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis settings cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory settings cache
func (f *SettingsCacheFactory) CreateInMemoryCache(source ledger.SettingsProvider) SettingsProvider {
	return NewInMemorySettingsCache(source, f.ttl)
}

// CreateProvider creates a settings provider based on whether Redis is
// available. It tries Redis first and falls back to the in-memory cache when
// Redis is not available and fallback is allowed.
func (f *SettingsCacheFactory) CreateProvider(source ledger.SettingsProvider) (SettingsProvider, error) {
	cache, err := f.CreateRedisCache(source)
	if err == nil {
		f.logger.Info("using Redis settings cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for settings cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory settings cache. "+
		"Settings invalidation will not propagate across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(source), nil
}
