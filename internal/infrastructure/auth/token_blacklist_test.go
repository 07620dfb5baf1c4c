package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsAt(jti, userID string, iat time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: jti, IssuedAt: jwt.NewNumericDate(iat)},
		UserID:           userID,
	}
}

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	bl := NewInMemoryTokenBlacklist()
	bl.now = func() time.Time { return now }

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	require.NoError(t, bl.Revoke(ctx, "jti-expired", 0))

	tests := []struct {
		name   string
		claims *Claims
		want   bool
	}{
		{"revoked jti", claimsAt("jti-1", "u1", now), true},
		{"other jti", claimsAt("jti-2", "u1", now), false},
		{"zero ttl is a no-op", claimsAt("jti-expired", "u1", now), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bl.IsRevoked(ctx, tt.claims)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	now = now.Add(2 * time.Minute)
	got, err := bl.IsRevoked(ctx, claimsAt("jti-1", "u1", now))
	require.NoError(t, err)
	assert.False(t, got, "entry expires with the token")
	assert.NotContains(t, bl.jtis, "jti-1")
}

func TestInMemoryTokenBlacklist_RevokeUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	bl := NewInMemoryTokenBlacklist()
	bl.now = func() time.Time { return now }

	got, err := bl.IsRevoked(ctx, claimsAt("a", "user-1", now.Add(-time.Hour)))
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, bl.RevokeUser(ctx, "user-1", time.Hour))

	got, _ = bl.IsRevoked(ctx, claimsAt("a", "user-1", now.Add(-time.Hour)))
	assert.True(t, got)

	got, _ = bl.IsRevoked(ctx, claimsAt("b", "user-1", now.Add(time.Second)))
	assert.False(t, got, "tokens issued after the cut-off stay valid")

	got, _ = bl.IsRevoked(ctx, claimsAt("c", "user-2", now.Add(-time.Hour)))
	assert.False(t, got)
}
