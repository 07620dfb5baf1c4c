package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/identity"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/infrastructure/logger"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// caller is the authenticated user behind a request
type caller struct {
	UserID uuid.UUID
	Staff  bool
}

func getCaller(c *gin.Context) (caller, error) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		return caller{}, errors.New("user ID not found in context")
	}
	id, err := claims.GetUserUUID()
	if err != nil {
		return caller{}, err
	}
	return caller{UserID: id, Staff: identity.Role(claims.Role).IsStaff()}, nil
}

// pageOf mirrors shared.Filter.Normalize so the meta block matches the query
func pageOf(page, limit int) (int, int) {
	f := shared.Filter{Page: page, PageSize: limit}.Normalize()
	return f.Page, f.PageSize
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, limit int) {
	page, limit = pageOf(page, limit)
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, limit))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Message acknowledges an action without returning an entity
func (h *BaseHandler) Message(c *gin.Context, message string) {
	h.Success(c, dto.MessageData{Message: message})
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// ValidationError sends a 400 response listing the failing fields
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts domain errors to HTTP responses. Anything else is a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err), zap.String("path", c.FullPath()))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds the body and answers 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.ValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and answers 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.ValidationError(c, err)
		return false
	}
	return true
}

// pathID parses a UUID path parameter and answers 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// mustCaller returns the authenticated caller or answers 401
func (h *BaseHandler) mustCaller(c *gin.Context) (caller, bool) {
	who, err := getCaller(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return caller{}, false
	}
	return who, true
}
