package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// OperationsClient implements gamesvc.OperationsClient.
type OperationsClient struct {
	poller *operation.Poller
	store  gamesvc.OperationStore
}

// NewOperationsClient creates a new operations client.
func NewOperationsClient(poller *operation.Poller, store gamesvc.OperationStore) *OperationsClient {
	return &OperationsClient{
		poller: poller,
		store:  store,
	}
}

// Wait implements gamesvc.OperationsClient.Wait. The description recorded
// by an earlier wait is carried over when the store knows the operation.
func (c *OperationsClient) Wait(ctx context.Context, requestID string) (*gamesvc.OperationResult, error) {
	if requestID == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "request id is required", gamesvc.ErrMissingRequestID)
	}

	description := ""

	previous, err := c.store.Get(ctx, requestID)
	if err == nil {
		description = previous.Description
	}

	result, err := c.poller.Resume(ctx, requestID, description)
	if err != nil {
		return result, fmt.Errorf("waiting for operation %s: %w", requestID, err)
	}

	return result, nil
}

// List implements gamesvc.OperationsClient.List.
func (c *OperationsClient) List(ctx context.Context) ([]gamesvc.OperationResult, error) {
	results, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	return results, nil
}

// Forget implements gamesvc.OperationsClient.Forget.
func (c *OperationsClient) Forget(ctx context.Context, requestID string) error {
	err := c.store.Delete(ctx, requestID)
	if err != nil {
		return fmt.Errorf("forgetting operation: %w", err)
	}

	return nil
}

// awaitOperation turns the response of a mutating call into an operation
// result. A 202 is polled to completion; any other success completed
// synchronously and is reported as Succeeded without polling.
func awaitOperation(ctx context.Context, poller *operation.Poller, resp *http.Response, description string) (*gamesvc.OperationResult, error) {
	if resp.StatusCode == nethttp.StatusAccepted {
		return poller.Poll(ctx, resp, description)
	}

	if !resp.IsSuccess() {
		return nil, http.NewResponseError(resp)
	}

	return &gamesvc.OperationResult{
		RequestID:      resp.Header.Get(constants.RequestIDHeader),
		Description:    description,
		State:          gamesvc.OperationStateSucceeded,
		HTTPStatusCode: resp.StatusCode,
		StartedAt:      time.Now().UTC(),
	}, nil
}

// timedOut describes a TimedOut result as an error, for steps that cannot
// continue without the operation having finished.
func timedOut(result *gamesvc.OperationResult) error {
	return &gamesvc.ServiceResponseError{
		Kind:      gamesvc.ErrorKindTimeout,
		Message:   fmt.Sprintf("operation %s still in progress after %s", result.RequestID, result.Elapsed.Round(time.Second)),
		RequestID: result.RequestID,
		Cause:     gamesvc.ErrOperationTimedOut,
	}
}
