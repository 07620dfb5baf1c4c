package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/infrastructure/auth"
	"github.com/destinpq/groow-sub007/internal/infrastructure/logger"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
)

// Gin context keys set for authenticated requests
const (
	JWTClaimsKey = "jwt_claims"
	JWTUserIDKey = "jwt_user_id"
	JWTEmailKey  = "jwt_email"
	JWTRoleKey   = "jwt_role"
)

var errNoCredentials = errors.New("no credentials")

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig. Paths in
// SkipPaths (exact) and SkipPathPrefixes are served without a token.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is consulted when set; lookup failures let the request through
	TokenBlacklist   auth.TokenBlacklist
	SkipPaths        []string
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig keeps probes, metrics and the login endpoints public
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health", "/healthz", "/ready", "/metrics",
			"/api/v1/health", "/api/v1/auth/login", "/api/v1/auth/refresh",
		},
	}
}

func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	public := func(p string) bool {
		return slices.Contains(cfg.SkipPaths, p) ||
			slices.ContainsFunc(cfg.SkipPathPrefixes, func(prefix string) bool { return strings.HasPrefix(p, prefix) })
	}

	return func(c *gin.Context) {
		if public(c.Request.URL.Path) {
			c.Next()
			return
		}

		raw, ok := bearerToken(c)
		if !ok {
			rejectToken(c, log, errNoCredentials)
			return
		}
		claims, err := cfg.JWTService.ValidateAccessToken(raw)
		if err != nil {
			rejectToken(c, log, err)
			return
		}
		if cfg.TokenBlacklist != nil && revoked(c.Request.Context(), cfg.TokenBlacklist, claims, log) {
			rejectToken(c, log, auth.ErrTokenBlacklisted)
			return
		}

		setClaims(c, claims)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// revoked fails open: a blacklist outage must not lock everyone out
func revoked(ctx context.Context, bl auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) bool {
	hit, err := bl.IsRevoked(ctx, claims)
	if err != nil {
		log.Error("Token revocation lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		return false
	}
	return hit
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTEmailKey, claims.Email)
	c.Set(JWTRoleKey, claims.Role)
}

func rejectToken(c *gin.Context, log *zap.Logger, err error) {
	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, msg = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrTokenNotYetValid):
		code, msg = dto.ErrCodeTokenInvalid, err.Error()
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	log.Debug("Request rejected", zap.String("path", c.Request.URL.Path), zap.String("code", code), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, msg, c.GetString(RequestIDKey)))
}

// GetJWTClaims returns the claims of an authenticated request, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string { return c.GetString(JWTUserIDKey) }

func GetJWTRole(c *gin.Context) string { return c.GetString(JWTRoleKey) }

// OptionalJWTAuthMiddleware sets claims when a valid token is present and
// lets every request through
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := jwtService.ValidateAccessToken(raw); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}
