package operation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	gshttp "github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/metrics"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// DefaultPathFormat is the status endpoint, relative to the subscription.
const DefaultPathFormat = "/operations/%s"

// Poller waits for accepted operations to finish. Polls of one operation
// are strictly sequential; a Poller may serve many operations concurrently.
type Poller struct {
	client     *gshttp.Client
	header     string
	pathFormat string
	interval   time.Duration
	timeout    time.Duration
	logger     gamesvc.Logger
	metrics    *metrics.Collector
	store      gamesvc.OperationStore
}

// Option configures a Poller.
type Option func(*Poller)

// WithRequestIDHeader names the header carrying the operation id.
func WithRequestIDHeader(header string) Option {
	return func(p *Poller) {
		if header != "" {
			p.header = header
		}
	}
}

// WithPathFormat sets the status endpoint; %s receives the operation id.
func WithPathFormat(format string) Option {
	return func(p *Poller) {
		if format != "" {
			p.pathFormat = format
		}
	}
}

// WithInterval sets the pause between polls.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithTimeout bounds the total wait.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Poller) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger gamesvc.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithMetrics records polls and outcomes on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Poller) {
		p.metrics = collector
	}
}

// WithStore records every finished wait in store.
func WithStore(store gamesvc.OperationStore) Option {
	return func(p *Poller) {
		p.store = store
	}
}

// NewPoller creates a poller sending status requests through client.
func NewPoller(client *gshttp.Client, opts ...Option) *Poller {
	poller := &Poller{
		client:     client,
		header:     constants.RequestIDHeader,
		pathFormat: DefaultPathFormat,
		interval:   constants.DefaultPollInterval,
		timeout:    constants.DefaultPollTimeout,
	}

	for _, opt := range opts {
		opt(poller)
	}

	return poller
}

// Poll waits for the operation accepted by initial. The response must be a
// 202 carrying the request id header; anything else is a protocol error and
// no status request is sent.
//
// The returned result is never nil once polling started. A Failed operation
// is returned together with a remote operation error; a wait that outlives
// the timeout is returned as TimedOut without an error.
func (p *Poller) Poll(ctx context.Context, initial *gshttp.Response, description string) (*gamesvc.OperationResult, error) {
	if initial.StatusCode != http.StatusAccepted {
		if !initial.IsSuccess() {
			return nil, gshttp.NewResponseError(initial)
		}

		return nil, &gamesvc.ServiceResponseError{
			Kind:       gamesvc.ErrorKindProtocol,
			StatusCode: initial.StatusCode,
			Message:    gamesvc.ErrUnexpectedStatus.Error(),
			Cause:      gamesvc.ErrUnexpectedStatus,
		}
	}

	requestID := strings.TrimSpace(initial.Header.Get(p.header))
	if requestID == "" {
		return nil, &gamesvc.ServiceResponseError{
			Kind:    gamesvc.ErrorKindProtocol,
			Message: fmt.Sprintf("header %s not found", p.header),
			Cause:   gamesvc.ErrMissingRequestID,
		}
	}

	return p.Resume(ctx, requestID, description)
}

// Resume polls an operation by request id, for example one that timed out
// in an earlier wait.
func (p *Poller) Resume(ctx context.Context, requestID, description string) (*gamesvc.OperationResult, error) {
	start := time.Now().UTC()

	result := &gamesvc.OperationResult{
		RequestID:   requestID,
		Description: description,
		State:       gamesvc.OperationStateSubmitted,
		StartedAt:   start,
	}

	p.log("waiting for operation", result, nil)

	for {
		status, err := p.fetch(ctx, requestID)
		if err != nil {
			return result, err
		}

		result.Polls++
		p.metrics.ObservePoll(string(status.Status))
		apply(result, status)

		switch status.Status {
		case StatusSucceeded:
			return p.finish(ctx, result, start), nil
		case StatusFailed:
			p.finish(ctx, result, start)

			return result, result.Err()
		case StatusInProgress:
		}

		err = sleep(ctx, p.interval)
		if err != nil {
			return result, fmt.Errorf("waiting for operation %s: %w", requestID, err)
		}

		if time.Now().UTC().Sub(start) >= p.timeout {
			result.State = gamesvc.OperationStateTimedOut

			return p.finish(ctx, result, start), nil
		}
	}
}

func (p *Poller) fetch(ctx context.Context, requestID string) (*StatusResponse, error) {
	resp, err := p.client.GetXML(ctx, fmt.Sprintf(p.pathFormat, url.PathEscape(requestID)), nil)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, gshttp.NewResponseError(resp)
	}

	status, err := ParseStatusResponse(resp.Body, resp.Charset())
	if err != nil {
		return nil, &gamesvc.ServiceResponseError{
			Kind:       gamesvc.ErrorKindDecode,
			StatusCode: resp.StatusCode,
			Message:    "parsing operation status",
			RequestID:  requestID,
			Cause:      err,
		}
	}

	status.RequestID = resp.Header.Get(p.header)

	return status, nil
}

func apply(result *gamesvc.OperationResult, status *StatusResponse) {
	switch status.Status {
	case StatusSucceeded:
		result.State = gamesvc.OperationStateSucceeded
	case StatusFailed:
		result.State = gamesvc.OperationStateFailed
	case StatusInProgress:
		result.State = gamesvc.OperationStateInProgress
	}

	result.HTTPStatusCode = status.HTTPStatusCode
	result.OperationID = status.ID
	result.LastPollRequestID = status.RequestID

	if status.Error != nil {
		result.ErrorCode = status.Error.Code
		result.ErrorMessage = status.Error.Message
	}
}

func (p *Poller) finish(ctx context.Context, result *gamesvc.OperationResult, start time.Time) *gamesvc.OperationResult {
	result.Elapsed = time.Since(start)
	p.metrics.ObserveOutcome(string(result.State))
	p.log("operation finished", result, nil)

	if p.store == nil {
		return result
	}

	err := p.store.Save(ctx, result)
	if err != nil {
		p.log("recording operation failed", result, err)
	}

	return result
}

func (p *Poller) log(msg string, result *gamesvc.OperationResult, err error) {
	if p.logger == nil {
		return
	}

	fields := map[string]interface{}{
		"request_id": result.RequestID,
		"state":      string(result.State),
		"polls":      result.Polls,
	}

	if err != nil {
		fields["error"] = err
		p.logger.Warn(msg, fields)

		return
	}

	p.logger.Debug(msg, fields)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
