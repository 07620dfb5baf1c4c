// Package auth issues and verifies the HS256 token pairs used by the API and
// tracks revoked tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
)

// TokenType separates access from refresh tokens inside the claims
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const clockSkew = 5 * time.Second

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims are the registered claims plus the caller identity. Both token
// types carry the role so a refresh needs no user lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	TokenType    TokenType `json:"token_type"`
	RefreshCount int       `json:"refresh_count,omitempty"`
}

func (c *Claims) GetUserUUID() (uuid.UUID, error) { return uuid.Parse(c.UserID) }

// GetIssuedAtTime returns the iat claim or the zero time
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL is how long the token stays valid, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// TokenPair is the login and refresh response payload
type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	ExpiresIn             int64     `json:"expiresIn"`
	TokenType             string    `json:"tokenType"`
}

type GenerateTokenInput struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// signer holds the key and lifetime of one token type
type signer struct {
	kind   TokenType
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// JWTService signs access and refresh tokens with separate keys. A missing
// refresh secret reuses the access secret.
type JWTService struct {
	access, refresh signer
	issuer          string
	maxRefresh      int
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshKey := cfg.RefreshSecret
	if refreshKey == "" {
		refreshKey = cfg.Secret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer), jwt.WithAudience(cfg.Issuer))
	}
	return &JWTService{
		access:     signer{kind: TokenTypeAccess, key: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration, parser: jwt.NewParser(opts...)},
		refresh:    signer{kind: TokenTypeRefresh, key: []byte(refreshKey), ttl: cfg.RefreshTokenExpiration, parser: jwt.NewParser(opts...)},
		issuer:     cfg.Issuer,
		maxRefresh: cfg.MaxRefreshCount,
	}
}

func (s *JWTService) GenerateTokenPair(in GenerateTokenInput) (*TokenPair, error) {
	return s.issue(Claims{UserID: in.UserID.String(), Email: in.Email, Role: in.Role})
}

// issue signs both tokens for who; who.RefreshCount is copied to the
// refresh token only
func (s *JWTService) issue(who Claims) (*TokenPair, error) {
	now := time.Now()
	pair := &TokenPair{
		AccessTokenExpiresAt:  now.Add(s.access.ttl),
		RefreshTokenExpiresAt: now.Add(s.refresh.ttl),
		ExpiresIn:             int64(s.access.ttl / time.Second),
		TokenType:             "Bearer",
	}
	var err error
	if pair.AccessToken, err = s.sign(s.access, who, 0, now); err != nil {
		return nil, err
	}
	if pair.RefreshToken, err = s.sign(s.refresh, who, who.RefreshCount, now); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *JWTService) sign(sg signer, who Claims, refreshCount int, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   who.UserID,
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sg.ttl)),
		},
		UserID:       who.UserID,
		Email:        who.Email,
		Role:         who.Role,
		TokenType:    sg.kind,
		RefreshCount: refreshCount,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(sg.key)
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.verify(s.access, token)
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.verify(s.refresh, token)
}

func (s *JWTService) verify(sg signer, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := sg.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return sg.key, nil })
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}
	if claims.TokenType != sg.kind {
		return nil, ErrInvalidTokenType
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// RefreshTokenPair swaps a refresh token for a new pair with the refresh
// count bumped. It returns the claims of the consumed token so the caller
// can revoke it.
func (s *JWTService) RefreshTokenPair(refreshToken string) (*TokenPair, *Claims, error) {
	old, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if s.maxRefresh > 0 && old.RefreshCount >= s.maxRefresh {
		return nil, nil, ErrMaxRefreshExceeded
	}
	next := *old
	next.RefreshCount++
	pair, err := s.issue(next)
	if err != nil {
		return nil, nil, err
	}
	return pair, old, nil
}

// SessionLifetime is the longest any issued token stays valid
func (s *JWTService) SessionLifetime() time.Duration {
	return max(s.access.ttl, s.refresh.ttl)
}
