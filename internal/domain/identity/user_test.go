package identity

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

func TestMain(m *testing.M) {
	BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestNewUser(t *testing.T) {
	t.Run("normalizes email and hashes password", func(t *testing.T) {
		u, err := NewUser("  Admin@Groow.io ", "secret123", "", RoleAdmin)
		require.NoError(t, err)

		assert.Equal(t, "admin@groow.io", u.Email)
		assert.Equal(t, "admin", u.Name)
		assert.True(t, u.IsActive)
		assert.NotEqual(t, "secret123", u.PasswordHash)
		assert.True(t, u.VerifyPassword("secret123"))
		assert.False(t, u.VerifyPassword("secret124"))
	})

	tests := []struct {
		name     string
		email    string
		password string
		role     Role
	}{
		{"bad email", "not-an-email", "secret123", RoleAdmin},
		{"short password", "a@b.io", "s3cret", RoleAdmin},
		{"password without digit", "a@b.io", "secretsecret", RoleAdmin},
		{"unknown role", "a@b.io", "secret123", "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.email, tt.password, "x", tt.role)
			assert.Error(t, err)
			assert.Nil(t, u)
		})
	}
}

func TestUser_LoginTracking(t *testing.T) {
	now := time.Now()
	u, err := NewUser("ops@groow.io", "secret123", "Ops", RoleStaff)
	require.NoError(t, err)

	assert.False(t, u.RecordLoginFailure(3, time.Minute, now))
	assert.False(t, u.RecordLoginFailure(3, time.Minute, now))
	assert.True(t, u.RecordLoginFailure(3, time.Minute, now))

	assert.True(t, u.IsLocked(now))
	assert.Error(t, u.CanLogin(now))
	assert.NoError(t, u.CanLogin(now.Add(2*time.Minute)))

	u.RecordLoginSuccess("10.0.0.1", now)
	assert.Nil(t, u.LockedUntil)
	assert.Equal(t, "10.0.0.1", u.LastLoginIP)

	u.Deactivate()
	assert.True(t, errors.Is(u.CanLogin(now), shared.ErrAccountDisabled))
}

func TestUser_SetPassword(t *testing.T) {
	u, err := NewUser("ops@groow.io", "secret123", "Ops", RoleStaff)
	require.NoError(t, err)

	assert.Error(t, u.SetPassword("short"))
	require.NoError(t, u.SetPassword("newpass456"))
	assert.True(t, u.VerifyPassword("newpass456"))
}

func TestRole(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleStaff.IsStaff())
	assert.False(t, RoleCustomer.IsStaff())
	assert.False(t, Role("root").IsValid())
}
