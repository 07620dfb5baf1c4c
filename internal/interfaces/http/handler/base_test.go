package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/infrastructure/auth"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped invalid state", fmt.Errorf("start: %w", shared.ErrInvalidState), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"inventory", shared.ErrInsufficientInventory, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientInventory},
		{"invalid prefix", shared.NewDomainError("INVALID_TITLE", "Title cannot be empty"), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"unmapped rule", shared.NewDomainError("TOO_MANY_ATTACHMENTS", "limit"), http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule},
		{"credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/")
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestHandleError_InternalMessageIsGeneric(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")
	(&BaseHandler{}).HandleError(c, errors.New("pq: password authentication failed"))

	resp := decodeResponse(t, rec)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestHandleError_Nil(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")
	(&BaseHandler{}).HandleError(c, nil)
	assert.Empty(t, rec.Body.String())
}

func TestPathID(t *testing.T) {
	h := &BaseHandler{}

	id := uuid.New()
	c, _ := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, rec := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, ok = h.pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid id format", decodeResponse(t, rec).Error.Message)
}

func TestPageOf(t *testing.T) {
	page, limit := pageOf(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = pageOf(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)
}

func TestSuccessWithMeta(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")
	(&BaseHandler{}).SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 0)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.Limit)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasNext)
	assert.True(t, resp.Meta.HasPrev)
}

func TestMustCaller(t *testing.T) {
	h := &BaseHandler{}

	c, rec := newTestContext(http.MethodGet, "/")
	_, ok := h.mustCaller(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userID := uuid.New()
	c, _ = newTestContext(http.MethodGet, "/")
	c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Role: "staff"})
	who, ok := h.mustCaller(c)
	require.True(t, ok)
	assert.Equal(t, userID, who.UserID)
	assert.True(t, who.Staff)

	c, _ = newTestContext(http.MethodGet, "/")
	c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Role: "customer"})
	who, ok = h.mustCaller(c)
	require.True(t, ok)
	assert.False(t, who.Staff)
}
