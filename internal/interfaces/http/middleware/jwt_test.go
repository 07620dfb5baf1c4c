package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/groow-sub007/internal/domain/identity"
	"github.com/destinpq/groow-sub007/internal/infrastructure/auth"
	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "middleware-access-secret-32-chars!",
		RefreshSecret:          "middleware-refresh-secret-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "groow-test",
	})
}

// issue signs a token pair for a fresh user with role
func issue(t *testing.T, svc *auth.JWTService, role identity.Role) (*auth.TokenPair, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{UserID: id, Email: "buyer@groow.test", Role: string(role)})
	require.NoError(t, err)
	return pair, id
}

// call sends GET path through engine with an optional Authorization header
func call(engine *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error, rec.Body.String())
	assert.False(t, resp.Success)
	return resp.Error
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeError(t, rec).Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := testJWT()
	pair, id := issue(t, svc, identity.RoleCustomer)

	engine := gin.New()
	engine.Use(JWTAuthMiddleware(svc))
	engine.GET("/me", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, id.String(), claims.UserID)
		assert.Equal(t, id.String(), GetJWTUserID(c))
		assert.Equal(t, "customer", GetJWTRole(c))
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, call(engine, "/me", "Bearer "+pair.AccessToken).Code)
	assert.Equal(t, http.StatusNoContent, call(engine, "/me", "bearer "+pair.AccessToken).Code, "scheme is case-insensitive")
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := testJWT()
	pair, _ := issue(t, svc, identity.RoleCustomer)

	engine := gin.New()
	engine.Use(JWTAuthMiddleware(svc))
	engine.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	for name, tc := range map[string]struct{ header, code string }{
		"missing header":          {"", dto.ErrCodeUnauthorized},
		"wrong scheme":            {"Basic abc", dto.ErrCodeUnauthorized},
		"empty bearer":            {"Bearer  ", dto.ErrCodeUnauthorized},
		"garbage token":           {"Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		"refresh token as access": {"Bearer " + pair.RefreshToken, dto.ErrCodeTokenInvalid},
	} {
		t.Run(name, func(t *testing.T) {
			rec := call(engine, "/me", tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_PublicPaths(t *testing.T) {
	engine := gin.New()
	engine.Use(JWTAuthMiddleware(testJWT()))
	engine.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Revoked(t *testing.T) {
	svc := testJWT()
	pair, id := issue(t, svc, identity.RoleCustomer)
	other, _ := issue(t, svc, identity.RoleCustomer)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	engine := gin.New()
	engine.Use(JWTAuthMiddlewareWithConfig(cfg))
	engine.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, call(engine, "/me", "Bearer "+pair.AccessToken).Code)

	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Minute))
	rec := call(engine, "/me", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, rec))

	require.NoError(t, blacklist.RevokeUser(context.Background(), id.String(), time.Hour))
	assert.Equal(t, http.StatusOK, call(engine, "/me", "Bearer "+other.AccessToken).Code, "other users are unaffected")
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	svc := testJWT()
	pair, id := issue(t, svc, identity.RoleStaff)

	engine := gin.New()
	engine.Use(OptionalJWTAuthMiddleware(svc))
	engine.GET("/who", func(c *gin.Context) { c.String(http.StatusOK, GetJWTUserID(c)) })

	anon := call(engine, "/who", "")
	assert.Equal(t, http.StatusOK, anon.Code)
	assert.Empty(t, anon.Body.String())

	assert.Equal(t, id.String(), call(engine, "/who", "Bearer "+pair.AccessToken).Body.String())
}

func TestRequireRoles(t *testing.T) {
	svc := testJWT()
	engine := gin.New()
	engine.Use(JWTAuthMiddleware(svc))
	engine.GET("/staff", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for role, want := range map[identity.Role]int{
		identity.RoleAdmin:    http.StatusOK,
		identity.RoleStaff:    http.StatusOK,
		identity.RoleCustomer: http.StatusForbidden,
		identity.RoleVendor:   http.StatusForbidden,
	} {
		t.Run(string(role), func(t *testing.T) {
			pair, _ := issue(t, svc, role)
			assert.Equal(t, want, call(engine, "/staff", "Bearer "+pair.AccessToken).Code)
		})
	}

	t.Run("no claims", func(t *testing.T) {
		bare := gin.New()
		bare.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusUnauthorized, call(bare, "/admin", "").Code)
	})
}
