package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
)

// BodyLimit rejects declared bodies over maxBytes with 413 and caps the
// reader for chunked ones. maxBytes <= 0 disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength <= maxBytes {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size", c.GetString(RequestIDKey)))
	}
}
