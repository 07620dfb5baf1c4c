package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/destinpq/groow-sub007/internal/envelope"
)

// User-facing messages for failures the server did not describe
const (
	MsgNetwork     = "Network error. Please check your connection."
	MsgServer      = "Server error. Please try again later."
	MsgRateLimited = "Too many requests. Please slow down."
	MsgUnknown     = "An error occurred"
)

// ErrUnauthorized is returned when a request stays unauthorized after the
// refresh attempt. The token store has been cleared by then.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// APIError describes a failed request. StatusCode is zero for network errors.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func networkError(err error) *APIError {
	return &APIError{Code: "NETWORK_ERROR", Message: MsgNetwork, Err: err}
}

// newAPIError builds the error for a non-2xx response
func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}

	doc, _ := envelope.Parse(resp.Body)
	apiErr.Code = envelope.ErrorCode(doc)
	if id, ok := lookupString(doc, "error", "request_id"); ok {
		apiErr.RequestID = id
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		apiErr.Message = MsgServer
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.Message = MsgRateLimited
	default:
		apiErr.Message = envelope.ErrorMessage(doc)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if apiErr.Message == "" {
			apiErr.Message = MsgUnknown
		}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		apiErr.Err = ErrUnauthorized
	}
	return apiErr
}

func lookupString(doc any, keys ...string) (string, bool) {
	cur := doc
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur = m[k]
	}
	s, ok := cur.(string)
	return s, ok && s != ""
}
