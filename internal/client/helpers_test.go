package client

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	nethttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/auth"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/stretchr/testify/require"
)

const (
	testSubscription = "/sub"
	testToken        = "test-token"
)

// newTestHTTPClient returns a transport for serverURL that tries each
// request once.
func newTestHTTPClient(t *testing.T, serverURL string) *http.Client {
	t.Helper()

	httpClient, err := http.NewClient(serverURL+testSubscription,
		auth.NewBearerCredential(auth.StaticToken(testToken)),
		http.WithRetryConfig(1, time.Millisecond))
	require.NoError(t, err)

	return httpClient
}

func newTestPoller(httpClient *http.Client, store gamesvc.OperationStore) *operation.Poller {
	opts := []operation.Option{
		operation.WithInterval(time.Millisecond),
		operation.WithTimeout(time.Second),
	}

	if store != nil {
		opts = append(opts, operation.WithStore(store))
	}

	return operation.NewPoller(httpClient, opts...)
}

func newTestRegistrar(httpClient *http.Client) *registrar {
	return newRegistrar(httpClient, newTestPoller(httpClient, nil), gamesvc.NopLogger{})
}

func succeededDocument(id string) string {
	return `<Operation xmlns="http://schemas.microsoft.com/windowsazure"><ID>` + id +
		`</ID><Status>Succeeded</Status><HttpStatusCode>200</HttpStatusCode></Operation>`
}

func writeJSON(t *testing.T, w nethttp.ResponseWriter, status int, value interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeXML(w nethttp.ResponseWriter, status int, document string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, document)
}

// multipartRequest is a parsed multipart body: the metadata field and the
// content of each file part by field name.
type multipartRequest struct {
	metadata map[string]interface{}
	files    map[string]string
	names    map[string]string
}

func readMultipart(t *testing.T, r *nethttp.Request) multipartRequest {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	parsed := multipartRequest{
		files: map[string]string{},
		names: map[string]string{},
	}

	reader := multipart.NewReader(r.Body, params["boundary"])

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}

		require.NoError(t, err)

		content, err := io.ReadAll(part)
		require.NoError(t, err)

		if part.FormName() == "metadata" {
			require.NoError(t, json.Unmarshal(content, &parsed.metadata))

			continue
		}

		parsed.files[part.FormName()] = string(content)
		parsed.names[part.FormName()] = part.FileName()
	}

	return parsed
}

// route identifies a request by method and path.
func route(r *nethttp.Request) string {
	return r.Method + " " + strings.TrimPrefix(r.URL.Path, testSubscription)
}
