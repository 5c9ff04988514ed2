package operation_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/auth"
	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	gshttp "github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusDocument(status, httpStatus, code, message string) string {
	document := `<Operation xmlns="http://schemas.microsoft.com/windowsazure">` +
		`<ID>op-1</ID><Status>` + status + `</Status>`

	if httpStatus != "" {
		document += `<HttpStatusCode>` + httpStatus + `</HttpStatusCode>`
	}

	if code != "" || message != "" {
		document += `<Error><Code>` + code + `</Code><Message>` + message + `</Message></Error>`
	}

	return document + `</Operation>`
}

// statusServer answers the k-th status request with Succeeded, or never
// when k is zero.
func statusServer(t *testing.T, k int32, calls *int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/sub/operations/req-42", request.URL.Path)

		n := atomic.AddInt32(calls, 1)

		writer.Header().Set("Content-Type", "application/xml; charset=utf-8")

		if k > 0 && n >= k {
			_, _ = fmt.Fprint(writer, statusDocument("Succeeded", "200", "", ""))

			return
		}

		_, _ = fmt.Fprint(writer, statusDocument("InProgress", "Accepted", "", ""))
	}))
	t.Cleanup(server.Close)

	return server
}

func newPoller(t *testing.T, serverURL string, opts ...operation.Option) *operation.Poller {
	t.Helper()

	client, err := gshttp.NewClient(serverURL+"/sub", auth.NewBearerCredential(auth.StaticToken("token")),
		gshttp.WithRetryConfig(1, time.Millisecond))
	require.NoError(t, err)

	opts = append([]operation.Option{operation.WithInterval(time.Millisecond)}, opts...)

	return operation.NewPoller(client, opts...)
}

func accepted(requestID string) *gshttp.Response {
	header := make(http.Header)
	if requestID != "" {
		header.Set(constants.RequestIDHeader, requestID)
	}

	return &gshttp.Response{StatusCode: http.StatusAccepted, Header: header}
}

func TestPoller_SucceedsOnKthPoll(t *testing.T) {
	t.Parallel()

	for _, k := range []int32{1, 2, 5} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			t.Parallel()

			var calls int32

			server := statusServer(t, k, &calls)
			poller := newPoller(t, server.URL)

			result, err := poller.Poll(context.Background(), accepted("req-42"), "create game")
			require.NoError(t, err)
			assert.Equal(t, gamesvc.OperationStateSucceeded, result.State)
			assert.True(t, result.Succeeded())
			assert.Equal(t, k, atomic.LoadInt32(&calls))
			assert.Equal(t, int(k), result.Polls)
			assert.Equal(t, "req-42", result.RequestID)
			assert.Equal(t, "create game", result.Description)
			assert.Equal(t, http.StatusOK, result.HTTPStatusCode)
		})
	}
}

func TestPoller_TimesOut(t *testing.T) {
	t.Parallel()

	var calls int32

	server := statusServer(t, 0, &calls)
	store := operation.NewMemoryStore()
	poller := newPoller(t, server.URL,
		operation.WithInterval(5*time.Millisecond),
		operation.WithTimeout(30*time.Millisecond),
		operation.WithStore(store))

	result, err := poller.Poll(context.Background(), accepted("req-42"), "")
	require.NoError(t, err)
	assert.Equal(t, gamesvc.OperationStateTimedOut, result.State)
	assert.False(t, result.Succeeded())
	assert.Equal(t, http.StatusAccepted, result.HTTPStatusCode)
	assert.Positive(t, result.Polls)
	assert.Equal(t, int32(result.Polls), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, result.Elapsed, 30*time.Millisecond)

	saved, err := store.Get(context.Background(), "req-42")
	require.NoError(t, err)
	assert.Equal(t, gamesvc.OperationStateTimedOut, saved.State)
}

func TestPoller_Failed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = fmt.Fprint(writer, statusDocument("Failed", "Conflict", "ResourceConflict", "in use"))
	}))
	defer server.Close()

	poller := newPoller(t, server.URL)

	result, err := poller.Poll(context.Background(), accepted("req-42"), "")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, gamesvc.OperationStateFailed, result.State)

	var svcErr *gamesvc.ServiceResponseError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, gamesvc.ErrorKindRemoteOperation, svcErr.Kind)
	assert.Equal(t, "ResourceConflict", svcErr.Code)
	assert.Equal(t, "in use", svcErr.Message)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
	assert.True(t, gamesvc.IsOperationFailed(err))
}

func TestPoller_MissingRequestID(t *testing.T) {
	t.Parallel()

	var calls int32

	server := statusServer(t, 1, &calls)
	poller := newPoller(t, server.URL)

	result, err := poller.Poll(context.Background(), accepted(""), "")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, gamesvc.IsProtocolViolation(err))
	assert.ErrorIs(t, err, gamesvc.ErrMissingRequestID)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPoller_CustomHeader(t *testing.T) {
	t.Parallel()

	var calls int32

	server := statusServer(t, 1, &calls)
	poller := newPoller(t, server.URL, operation.WithRequestIDHeader("x-ms-operation-id"))

	initial := accepted("")
	initial.Header.Set("x-ms-operation-id", "req-42")

	result, err := poller.Poll(context.Background(), initial, "")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
}

func TestPoller_RecordsStatusRequestIDFromConfiguredHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
		writer.Header().Set("x-ms-operation-id", "poll-7")
		writer.Header().Set(constants.RequestIDHeader, "unrelated")
		_, _ = fmt.Fprint(writer, statusDocument("Succeeded", "200", "", ""))
	}))
	defer server.Close()

	poller := newPoller(t, server.URL, operation.WithRequestIDHeader("x-ms-operation-id"))

	initial := accepted("")
	initial.Header.Set("x-ms-operation-id", "req-42")

	result, err := poller.Poll(context.Background(), initial, "")
	require.NoError(t, err)
	assert.Equal(t, "req-42", result.RequestID)
	assert.Equal(t, "op-1", result.OperationID)
	assert.Equal(t, "poll-7", result.LastPollRequestID)
}

func TestPoller_UnexpectedInitialStatus(t *testing.T) {
	t.Parallel()

	var calls int32

	server := statusServer(t, 1, &calls)
	poller := newPoller(t, server.URL)

	tests := []struct {
		status   int
		wantKind gamesvc.ErrorKind
	}{
		{status: http.StatusOK, wantKind: gamesvc.ErrorKindProtocol},
		{status: http.StatusCreated, wantKind: gamesvc.ErrorKindProtocol},
		{status: http.StatusBadRequest, wantKind: gamesvc.ErrorKindResponse},
		{status: http.StatusInternalServerError, wantKind: gamesvc.ErrorKindTransport},
	}

	for _, tt := range tests {
		initial := accepted("req-42")
		initial.StatusCode = tt.status

		_, err := poller.Poll(context.Background(), initial, "")
		require.Error(t, err)
		assert.Equal(t, tt.status, gamesvc.StatusCode(err))
		assert.True(t, gamesvc.IsKind(err, tt.wantKind), "status %d", tt.status)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPoller_CancelDuringSleep(t *testing.T) {
	t.Parallel()

	var calls int32

	server := statusServer(t, 0, &calls)
	poller := newPoller(t, server.URL, operation.WithInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := poller.Resume(ctx, "req-42", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, gamesvc.OperationStateInProgress, result.State)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPoller_StatusEndpointError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(writer, `<Error xmlns="http://schemas.microsoft.com/windowsazure"><Code>ResourceNotFound</Code><Message>no such operation</Message></Error>`)
	}))
	defer server.Close()

	poller := newPoller(t, server.URL)

	_, err := poller.Resume(context.Background(), "req-42", "")
	require.Error(t, err)
	assert.True(t, gamesvc.IsNotFound(err))
	assert.Contains(t, err.Error(), "no such operation")
}
