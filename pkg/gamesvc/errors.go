package gamesvc

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a ServiceResponseError.
type ErrorKind string

const (
	// ErrorKindTransport covers network failures and 5xx responses left after all retries.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindProtocol means the service broke the asynchronous operation contract.
	ErrorKindProtocol ErrorKind = "protocol"

	// ErrorKindRemoteOperation means a polled operation reported Failed.
	ErrorKindRemoteOperation ErrorKind = "remote_operation"

	// ErrorKindResponse covers non-retryable 4xx responses.
	ErrorKindResponse ErrorKind = "response"

	// ErrorKindDecode means a success body could not be decoded.
	ErrorKindDecode ErrorKind = "decode"

	// ErrorKindTimeout means a polled operation did not finish in time.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindValidation means the request was rejected before anything was sent.
	ErrorKindValidation ErrorKind = "validation"
)

// ServiceResponseError is returned for every failed interaction with the
// management API. StatusCode is zero when no HTTP response was received.
type ServiceResponseError struct {
	Kind       ErrorKind `json:"kind"                 yaml:"kind"`
	StatusCode int       `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Code       string    `json:"code,omitempty"       yaml:"code,omitempty"`
	Message    string    `json:"message"              yaml:"message"`
	RequestID  string    `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Cause      error     `json:"-"                    yaml:"-"`
}

// Error implements the error interface.
func (e *ServiceResponseError) Error() string {
	if e.StatusCode > 0 {
		msg := fmt.Sprintf("HTTP Error %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
		if e.Code != "" && e.Code != e.Message {
			msg += " [" + e.Code + "]"
		}

		return msg
	}

	if e.Cause != nil {
		if e.Message == "" {
			return fmt.Sprintf("%s error: %v", e.Kind, e.Cause)
		}

		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceResponseError) Unwrap() error {
	return e.Cause
}

// NewError builds a ServiceResponseError without an HTTP status.
func NewError(kind ErrorKind, message string, cause error) *ServiceResponseError {
	return &ServiceResponseError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrEndpointRequired     = errors.New("management endpoint is required")
	ErrSubscriptionRequired = errors.New("subscription id is required")
	ErrUnknownPlatform      = errors.New("unknown cloud game platform")
	ErrMissingRequestID     = errors.New("accepted response carries no request id header")
	ErrUnexpectedStatus     = errors.New("unexpected status code, should be 202 Accepted")
	ErrOperationTimedOut    = errors.New("operation did not complete before the poll timeout")
	ErrInvalidSchema        = errors.New("game mode schema requires a name, a file name and content")
	ErrUploadFailed         = errors.New("upload to pre-authorized location failed")
)

// IsKind reports whether err carries a ServiceResponseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *ServiceResponseError
	if errors.As(err, &svcErr) {
		return svcErr.Kind == kind
	}

	return false
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var svcErr *ServiceResponseError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict checks if the error is a 409.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsProtocolViolation checks if the service broke the asynchronous operation contract.
func IsProtocolViolation(err error) bool {
	return IsKind(err, ErrorKindProtocol)
}

// IsOperationFailed checks if a polled operation reported Failed.
func IsOperationFailed(err error) bool {
	return IsKind(err, ErrorKindRemoteOperation)
}
