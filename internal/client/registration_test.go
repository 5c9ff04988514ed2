package client

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	containerCheckRoute = "GET /cloudservices/gameservices/resources/gameservices/gameservicescontainer/"
	containerPutRoute   = "PUT /cloudservices/gameservices/resources/gameservices/gameservicescontainer/container"
)

// recorder counts requests by route.
type recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecorder() *recorder {
	return &recorder{counts: map[string]int{}}
}

func (r *recorder) record(request *nethttp.Request) string {
	key := route(request)

	r.mu.Lock()
	r.counts[key]++
	r.mu.Unlock()

	return key
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counts[key]
}

func TestRegistrar_EnsureContainer_Creates(t *testing.T) {
	t.Parallel()

	calls := newRecorder()

	var envelope string

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch calls.record(r) {
		case "PUT /services":
			assert.Equal(t, "gameservices.gameservicescontainer", r.URL.Query().Get("service"))
			w.WriteHeader(nethttp.StatusOK)
		case containerCheckRoute:
			assert.Equal(t, "checknameavailability", r.URL.Query().Get("op"))
			assert.Equal(t, "container", r.URL.Query().Get("resourceName"))
			writeXML(w, nethttp.StatusOK,
				`<ResourceNameAvailabilityResponse xmlns="http://schemas.microsoft.com/windowsazure"><IsAvailable>true</IsAvailable></ResourceNameAvailabilityResponse>`)
		case "GET /cloudservices/gameservices":
			w.WriteHeader(nethttp.StatusNotFound)
		case "PUT /cloudservices/gameservices":
			w.WriteHeader(nethttp.StatusCreated)
		case containerPutRoute:
			raw, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			envelope = string(raw)
			w.Header().Set(constants.RequestIDHeader, "req-container")
			w.WriteHeader(nethttp.StatusAccepted)
		case "GET /operations/req-container":
			writeXML(w, nethttp.StatusOK, succeededDocument("req-container"))
		default:
			t.Errorf("unexpected request %s", route(r))
		}
	}))
	defer server.Close()

	registrar := newTestRegistrar(newTestHTTPClient(t, server.URL))

	require.NoError(t, registrar.ensureContainer(context.Background()))
	require.NoError(t, registrar.ensureContainer(context.Background()))

	assert.Equal(t, 1, calls.count("PUT /services"))
	assert.Equal(t, 1, calls.count("PUT /cloudservices/gameservices"))
	assert.Equal(t, 1, calls.count(containerPutRoute))
	assert.Contains(t, envelope, "<Type>gameservicescontainer</Type>")
	assert.NotContains(t, envelope, "IntrinsicSettings")
}

func TestRegistrar_EnsureContainer_Exists(t *testing.T) {
	t.Parallel()

	calls := newRecorder()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch calls.record(r) {
		case "PUT /services":
			w.WriteHeader(nethttp.StatusConflict)
		case containerCheckRoute:
			writeXML(w, nethttp.StatusOK,
				`<ResourceNameAvailabilityResponse xmlns="http://schemas.microsoft.com/windowsazure"><IsAvailable>false</IsAvailable></ResourceNameAvailabilityResponse>`)
		default:
			t.Errorf("unexpected request %s", route(r))
		}
	}))
	defer server.Close()

	registrar := newTestRegistrar(newTestHTTPClient(t, server.URL))

	require.NoError(t, registrar.ensureContainer(context.Background()))
	assert.Equal(t, 0, calls.count(containerPutRoute))
}

func TestRegistrar_CreateContainer_LostRace(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch route(r) {
		case "GET /cloudservices/gameservices":
			writeXML(w, nethttp.StatusOK, `<CloudService xmlns="http://schemas.microsoft.com/windowsazure"><Name>gameservices</Name></CloudService>`)
		case containerPutRoute:
			w.WriteHeader(nethttp.StatusBadRequest)
		default:
			t.Errorf("unexpected request %s", route(r))
		}
	}))
	defer server.Close()

	registrar := newTestRegistrar(newTestHTTPClient(t, server.URL))

	assert.NoError(t, registrar.createContainer(context.Background()))
}

func TestRegistrar_Register_Failure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusForbidden)
	}))
	defer server.Close()

	registrar := newTestRegistrar(newTestHTTPClient(t, server.URL))

	err := registrar.registerCloudGameType(context.Background(), "gameservicescomputepc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registering gameservicescomputepc")
}

func TestRegistrar_EnsureCloudService_Concurrent(t *testing.T) {
	t.Parallel()

	var created atomic.Int32

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch route(r) {
		case "GET /cloudservices/gameservices":
			writeXML(w, nethttp.StatusOK, `<CloudService xmlns="http://schemas.microsoft.com/windowsazure"><Name>gameservices</Name></CloudService>`)
		default:
			created.Add(1)
			w.WriteHeader(nethttp.StatusOK)
		}
	}))
	defer server.Close()

	registrar := newTestRegistrar(newTestHTTPClient(t, server.URL))

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, registrar.ensureCloudService(context.Background()))
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(0), created.Load())
}
