package gamesvc

import "time"

// OperationState is the lifecycle state of an asynchronous operation.
type OperationState string

const (
	OperationStateSubmitted  OperationState = "Submitted"
	OperationStateInProgress OperationState = "InProgress"
	OperationStateSucceeded  OperationState = "Succeeded"
	OperationStateFailed     OperationState = "Failed"
	OperationStateTimedOut   OperationState = "TimedOut"
)

// Terminal reports whether no further transitions are possible. TimedOut is
// terminal for a single wait, but the operation can be resumed by request id.
func (s OperationState) Terminal() bool {
	switch s {
	case OperationStateSucceeded, OperationStateFailed, OperationStateTimedOut:
		return true
	default:
		return false
	}
}

// OperationResult is the outcome of waiting for an asynchronous operation.
type OperationResult struct {
	RequestID      string         `json:"request_id"              yaml:"request_id"`
	Description    string         `json:"description,omitempty"   yaml:"description,omitempty"`
	State          OperationState `json:"state"                   yaml:"state"`
	HTTPStatusCode int            `json:"http_status_code,omitempty" yaml:"http_status_code,omitempty"`
	ErrorCode      string         `json:"error_code,omitempty"    yaml:"error_code,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Polls          int            `json:"polls"                   yaml:"polls"`

	// OperationID is the ID of the status document; LastPollRequestID is the
	// request id the service gave the most recent status request.
	OperationID       string `json:"operation_id,omitempty"         yaml:"operation_id,omitempty"`
	LastPollRequestID string `json:"last_poll_request_id,omitempty" yaml:"last_poll_request_id,omitempty"`

	StartedAt      time.Time      `json:"started_at"              yaml:"started_at"`
	Elapsed        time.Duration  `json:"elapsed"                 yaml:"elapsed"`
}

// Succeeded is a convenience for callers that only need a boolean.
func (r *OperationResult) Succeeded() bool {
	return r != nil && r.State == OperationStateSucceeded
}

// Err returns the remote failure carried by a Failed result, or nil.
func (r *OperationResult) Err() error {
	if r == nil || r.State != OperationStateFailed {
		return nil
	}

	return &ServiceResponseError{
		Kind:       ErrorKindRemoteOperation,
		StatusCode: r.HTTPStatusCode,
		Code:       r.ErrorCode,
		Message:    r.ErrorMessage,
		RequestID:  r.RequestID,
	}
}
