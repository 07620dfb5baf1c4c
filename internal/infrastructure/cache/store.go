// Package cache provides short-lived key/value caching backed by Redis or
// process memory.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a byte-oriented cache with per-entry TTL
type Store interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl; a non-positive ttl keeps it until deleted
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys; missing keys are ignored
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON loads key into out. It reports false on a miss.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("cache: decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
