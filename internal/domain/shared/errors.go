package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized          = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden             = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientInventory = NewDomainError("INSUFFICIENT_INVENTORY", "Not enough inventory left for this campaign")
	ErrUsageLimitReached     = NewDomainError("USAGE_LIMIT_REACHED", "Usage limit reached")
	ErrInvalidCredentials    = NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountDisabled       = NewDomainError("ACCOUNT_DISABLED", "Account is disabled")
	ErrOutsideCampaignWindow = NewDomainError("OUTSIDE_WINDOW", "Campaign is not running at this time")
	ErrMinimumNotMet         = NewDomainError("MINIMUM_NOT_MET", "Order total is below the campaign minimum")
)

// RetryOnConflict runs fn up to attempts times while it fails with
// ErrConcurrencyConflict. fn must reload whatever it modifies.
func RetryOnConflict(attempts int, fn func() error) error {
	var err error
	for range max(attempts, 1) {
		if err = fn(); !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}
