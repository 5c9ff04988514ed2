package client

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationsClient_Wait(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "GET /operations/req-7", route(r))
		writeXML(w, nethttp.StatusOK, succeededDocument("req-7"))
	}))
	defer server.Close()

	ctx := context.Background()
	store := operation.NewMemoryStore()

	require.NoError(t, store.Save(ctx, &gamesvc.OperationResult{
		RequestID:   "req-7",
		Description: "deploy cloud game alpha",
		State:       gamesvc.OperationStateTimedOut,
	}))

	httpClient := newTestHTTPClient(t, server.URL)
	operations := NewOperationsClient(newTestPoller(httpClient, store), store)

	result, err := operations.Wait(ctx, "req-7")
	require.NoError(t, err)
	assert.Equal(t, gamesvc.OperationStateSucceeded, result.State)
	assert.Equal(t, "deploy cloud game alpha", result.Description)

	stored, err := store.Get(ctx, "req-7")
	require.NoError(t, err)
	assert.Equal(t, gamesvc.OperationStateSucceeded, stored.State)

	list, err := operations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, operations.Forget(ctx, "req-7"))

	list, err = operations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOperationsClient_Wait_RequiresID(t *testing.T) {
	t.Parallel()

	operations := NewOperationsClient(nil, operation.NewNoOpStore())

	_, err := operations.Wait(context.Background(), "")
	require.Error(t, err)
	assert.True(t, gamesvc.IsKind(err, gamesvc.ErrorKindValidation))
	assert.ErrorIs(t, err, gamesvc.ErrMissingRequestID)
}

func TestAwaitOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantState gamesvc.OperationState
		wantKind  gamesvc.ErrorKind
	}{
		{name: "ok", status: nethttp.StatusOK, wantState: gamesvc.OperationStateSucceeded},
		{name: "created", status: nethttp.StatusCreated, wantState: gamesvc.OperationStateSucceeded},
		{name: "conflict", status: nethttp.StatusConflict, wantKind: gamesvc.ErrorKindResponse},
		{name: "server error", status: nethttp.StatusServiceUnavailable, wantKind: gamesvc.ErrorKindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header := nethttp.Header{}
			header.Set(constants.RequestIDHeader, "req-sync")

			result, err := awaitOperation(context.Background(), nil,
				&http.Response{StatusCode: tt.status, Header: header}, "sync")

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Nil(t, result)
				assert.True(t, gamesvc.IsKind(err, tt.wantKind))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantState, result.State)
			assert.Equal(t, "req-sync", result.RequestID)
			assert.Equal(t, tt.status, result.HTTPStatusCode)
		})
	}
}

func TestTimedOut(t *testing.T) {
	t.Parallel()

	err := timedOut(&gamesvc.OperationResult{RequestID: "req-slow", Elapsed: 90 * time.Second})
	require.Error(t, err)
	assert.True(t, gamesvc.IsKind(err, gamesvc.ErrorKindTimeout))
	assert.ErrorIs(t, err, gamesvc.ErrOperationTimedOut)
	assert.Contains(t, err.Error(), "req-slow")
}
