package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes JWTs before they expire. A single token is revoked
// by jti; RevokeUser revokes everything a user was issued up to now.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, claims *Claims) (bool, error)
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)

// RedisTokenBlacklist shares revocations between server replicas.
// Keys: <prefix>jti:<jti> and <prefix>user:<id> holding a unix cut-off.
type RedisTokenBlacklist struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisTokenBlacklist(rdb redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{rdb: rdb, prefix: "groow:revoked:"}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, b.prefix+"jti:"+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.rdb.Set(ctx, b.prefix+"user:"+userID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// IsRevoked looks up the jti and the user cut-off in one round trip
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	vals, err := b.rdb.MGet(ctx, b.prefix+"jti:"+claims.ID, b.prefix+"user:"+claims.UserID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	if claims.ID != "" && vals[0] != nil {
		return true, nil
	}
	raw, ok := vals[1].(string)
	if !ok {
		return false, nil
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("check revocation: bad cut-off %q: %w", raw, err)
	}
	return claims.GetIssuedAtTime().Unix() <= cutoff, nil
}

// InMemoryTokenBlacklist serves a single process. Expired jti entries are
// dropped lazily on lookup.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	jtis    map[string]time.Time
	cutoffs map[string]time.Time
	now     func() time.Time
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:    map[string]time.Time{},
		cutoffs: map[string]time.Time{},
		now:     time.Now,
	}
}

func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[userID] = b.now()
	return nil
}

func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, claims *Claims) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if until, ok := b.jtis[claims.ID]; ok {
		if b.now().Before(until) {
			return true, nil
		}
		delete(b.jtis, claims.ID)
	}
	cutoff, ok := b.cutoffs[claims.UserID]
	return ok && !claims.GetIssuedAtTime().After(cutoff), nil
}
