package identity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Role is the coarse permission level of a user
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleVendor, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role handles back-office work
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleStaff
}

// BcryptCost is the hashing cost for new passwords
var BcryptCost = 12

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterExpr = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberExpr = regexp.MustCompile(`[0-9]`)
)

// User is an account that can sign in
type User struct {
	shared.BaseAggregateRoot
	Email          string `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash   string `gorm:"type:varchar(100);not null"`
	Name           string `gorm:"type:varchar(100);not null"`
	Role           Role   `gorm:"type:varchar(20);not null"`
	IsActive       bool   `gorm:"not null"`
	LastLoginAt    *time.Time
	LastLoginIP    string `gorm:"type:varchar(45)"`
	FailedAttempts int    `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NormalizeEmail is the stored form of an address: trimmed and lower-cased
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates an active user with a hashed password
func NewUser(email, password, name string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		Name:              name,
		Role:              role,
		IsActive:          true,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// IsLocked reports whether a lockout is in force at now
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin returns true if user can login
func (u *User) CanLogin(now time.Time) error {
	if !u.IsActive {
		return shared.ErrAccountDisabled
	}
	if u.IsLocked(now) {
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked")
	}
	return nil
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess(ip string, now time.Time) {
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.touch()
}

// RecordLoginFailure records a failed attempt.
// Returns true if the account got locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockFor time.Duration, now time.Time) bool {
	u.FailedAttempts++
	u.touch()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := now.Add(lockFor)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

// Deactivate disables the account
func (u *User) Deactivate() {
	u.IsActive = false
	u.touch()
}

func (u *User) touch() {
	u.Touch()
	u.IncrementVersion()
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetterExpr.MatchString(password) || !hasNumberExpr.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *User) error
}
