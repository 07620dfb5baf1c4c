package dto

import (
	"encoding/json"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/groow-sub007/internal/envelope"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInsufficientInventory, http.StatusUnprocessableEntity},
		{ErrCodeOutsideWindow, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeUsageLimitReached, NormalizeErrorCode("USAGE_LIMIT_REACHED"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("INVALID_STATE"))
	assert.Equal(t, ErrCodeInvalidCredentials, NormalizeErrorCode("INVALID_CREDENTIALS"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_SCHEDULE"))
	assert.Equal(t, ErrCodeConflict, NormalizeErrorCode("ALREADY_RATED"))
	assert.Equal(t, ErrCodeServiceUnavailable, NormalizeErrorCode("STORAGE_DISABLED"))
	assert.Equal(t, ErrCodeRateLimited, NormalizeErrorCode(ErrCodeRateLimited))
	assert.Equal(t, ErrCodeBusinessRule, NormalizeErrorCode("TOO_MANY_ATTACHMENTS"))
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(45, 2, 20)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)

	empty := NewMeta(0, 0, 20)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestNewMeta_MatchesClientPagination(t *testing.T) {
	tests := []struct {
		total       int64
		page, limit int
	}{
		{total: 45, page: 2, limit: 20},
		{total: 40, page: 2, limit: 20},
		{total: 7, page: 1, limit: 0},
		{total: -3, page: -1, limit: 10},
		{total: math.MaxInt64, page: 3, limit: 7},
	}
	for _, tt := range tests {
		m := NewMeta(tt.total, tt.page, tt.limit)
		pages := envelope.ComputeTotalPages(int(tt.total), tt.limit)
		want := envelope.NewPaginationInfo(max(tt.page, 1), tt.limit, int(tt.total), pages)
		assert.Equal(t, want.TotalPages, m.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
		assert.Equal(t, want.Page, m.Page)
		assert.Equal(t, want.HasNext, m.HasNext)
		assert.Equal(t, want.HasPrev, m.HasPrev)
		assert.Equal(t, tt.total, m.Total)
	}
}

// The envelope produced here must be readable by the client-side unwrapper.
func TestResponse_RoundTripsThroughUnwrapper(t *testing.T) {
	body, err := json.Marshal(NewSuccessResponseWithMeta([]map[string]string{{"id": "a"}, {"id": "b"}}, 12, 1, 2))
	require.NoError(t, err)

	doc, err := envelope.Parse(body)
	require.NoError(t, err)
	list := envelope.UnwrapList(doc)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 12, list.Pagination.Total)
	assert.Equal(t, 6, list.Pagination.TotalPages)
	assert.True(t, list.Pagination.HasNext)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Validation failed", "req-1", []ValidationDetail{{Field: "email", Message: "is required"}})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	doc, err := envelope.Parse(body)
	require.NoError(t, err)
	assert.Equal(t, "Validation failed", envelope.ErrorMessage(doc))
	assert.Equal(t, ErrCodeValidation, envelope.ErrorCode(doc))
}
