package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRedisDisabled is returned when no Redis client was configured
var ErrRedisDisabled = errors.New("redis is not configured")

// StoreFactory picks a Store implementation from what is available
type StoreFactory struct {
	client                redis.UniversalClient
	keyPrefix             string
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// FactoryOption configures a StoreFactory
type FactoryOption func(*StoreFactory)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback allows falling back to process memory when Redis
// cannot be reached
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) FactoryOption {
	return func(f *StoreFactory) {
		f.keyPrefix = prefix
	}
}

// NewStoreFactory creates a factory. client may be nil when Redis is disabled.
func NewStoreFactory(client redis.UniversalClient, opts ...FactoryOption) *StoreFactory {
	f := &StoreFactory{
		client:                client,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore returns a Redis store after checking connectivity
func (f *StoreFactory) CreateRedisStore(ctx context.Context) (*RedisStore, error) {
	if f.client == nil {
		return nil, ErrRedisDisabled
	}
	store := NewRedisStore(f.client, f.keyPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore returns a fresh in-memory store
func (f *StoreFactory) CreateInMemoryStore() *InMemoryStore {
	return NewInMemoryStore()
}

// CreateStore prefers Redis and falls back to memory when allowed
func (f *StoreFactory) CreateStore(ctx context.Context) (Store, error) {
	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using Redis cache store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for cache but unavailable: %w", err)
	}

	if errors.Is(err, ErrRedisDisabled) {
		f.logger.Info("Redis disabled, using in-memory cache store")
	} else {
		f.logger.Warn("Redis unavailable, falling back to in-memory cache store. "+
			"Cached flash sale lists will not be shared between instances.",
			zap.Error(err),
		)
	}
	return f.CreateInMemoryStore(), nil
}
