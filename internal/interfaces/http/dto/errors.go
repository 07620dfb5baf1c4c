package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountDisabled    = "ERR_ACCOUNT_DISABLED"
	ErrCodeAccountLocked      = "ERR_ACCOUNT_LOCKED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState          = "ERR_INVALID_STATE"
	ErrCodeBusinessRule          = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientInventory = "ERR_INSUFFICIENT_INVENTORY"
	ErrCodeQuantityLimitExceeded = "ERR_QUANTITY_LIMIT_EXCEEDED"
	ErrCodeUsageLimitReached     = "ERR_USAGE_LIMIT_REACHED"
	ErrCodeOutsideWindow         = "ERR_OUTSIDE_WINDOW"
	ErrCodeMinimumNotMet         = "ERR_MINIMUM_NOT_MET"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Availability error codes
const (
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountDisabled:    http.StatusForbidden,
	ErrCodeAccountLocked:      http.StatusLocked,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:          http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:          http.StatusUnprocessableEntity,
	ErrCodeInsufficientInventory: http.StatusUnprocessableEntity,
	ErrCodeQuantityLimitExceeded: http.StatusUnprocessableEntity,
	ErrCodeUsageLimitReached:     http.StatusUnprocessableEntity,
	ErrCodeOutsideWindow:         http.StatusUnprocessableEntity,
	ErrCodeMinimumNotMet:         http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes to API error codes
var domainCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_STATE":           ErrCodeInvalidState,
	"UNAUTHORIZED":            ErrCodeUnauthorized,
	"FORBIDDEN":               ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":    ErrCodeConcurrencyConflict,
	"INSUFFICIENT_INVENTORY":  ErrCodeInsufficientInventory,
	"QUANTITY_LIMIT_EXCEEDED": ErrCodeQuantityLimitExceeded,
	"USAGE_LIMIT_REACHED":     ErrCodeUsageLimitReached,
	"OUTSIDE_WINDOW":          ErrCodeOutsideWindow,
	"MINIMUM_NOT_MET":         ErrCodeMinimumNotMet,
	"INVALID_CREDENTIALS":     ErrCodeInvalidCredentials,
	"ACCOUNT_DISABLED":        ErrCodeAccountDisabled,
	"ACCOUNT_LOCKED":          ErrCodeAccountLocked,
	"TOKEN_EXPIRED":           ErrCodeTokenExpired,
	"TOKEN_INVALID":           ErrCodeTokenInvalid,
	"TOKEN_REVOKED":           ErrCodeTokenRevoked,
	"TOKEN_MAX_REFRESH":       ErrCodeTokenExpired,
	"STORAGE_DISABLED":        ErrCodeServiceUnavailable,
	"ALREADY_RATED":           ErrCodeConflict,
	"USER_NOT_FOUND":          ErrCodeNotFound,
	"INTERNAL_ERROR":          ErrCodeInternal,
	"PASSWORD_HASH_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format pass through; other domain validation
// codes (INVALID_TITLE, INVALID_SCHEDULE, ...) become ERR_INVALID_INPUT.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainCodeMapping[code]; ok {
		return mapped
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	if len(code) > 8 && code[:8] == "INVALID_" {
		return ErrCodeInvalidInput
	}
	if len(code) > 4 && code[:4] == "ERR_" {
		return code
	}
	return ErrCodeBusinessRule
}
