package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Messages used when the failure did not come from the server.
const (
	MsgTimeout        = "Request timeout"
	MsgCanceled       = "Request canceled"
	MsgNetwork        = "Network error"
	MsgInvalidJSON    = "Invalid JSON response"
	MsgInvalidFormat  = "Invalid response format"
	MsgInvalidBody    = "Invalid request body"
	MsgRateLimitAbort = "Rate limit wait aborted"
	MsgTooLarge       = "Response too large"
)

// StatusNetwork is the Status of errors that never produced an HTTP status.
const StatusNetwork = 0

// Error is the only error type returned by Client requests.
type Error struct {
	// Status is the HTTP status, 408 on timeout, or 0 when no usable response
	// was received.
	Status int
	// Message is the server-provided message when there is one.
	Message string
	// Data is the parsed response body, nil when the body was not JSON.
	Data json.RawMessage

	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("apiclient: %s (status %d): %v", e.Message, e.Status, e.err)
	}
	return fmt.Sprintf("apiclient: %s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.err }

// IsTimeout reports whether the request deadline elapsed.
func (e *Error) IsTimeout() bool { return e.Status == http.StatusRequestTimeout }

// IsNetwork reports whether no usable HTTP response was received.
func (e *Error) IsNetwork() bool { return e.Status == StatusNetwork }

// StatusOf returns the Status of an *Error in err's chain, or -1.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}

// serverMessage picks the human-readable message out of an error body,
// preferring "message" over "error".
func serverMessage(body json.RawMessage, status int) string {
	var fields struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &fields) == nil {
		if s, ok := fields.Message.(string); ok && s != "" {
			return s
		}
		if s, ok := fields.Error.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
