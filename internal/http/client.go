// Package http is the management API transport: a retrying HTTP client
// built on go-retryablehttp plus the typed response processor.
package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/auth"
	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/metrics"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Logger is the logging contract of the transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client sends requests to the management API. Only transport failures and
// 5xx responses are retried; everything else is returned to the caller as is.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	credential   auth.Credential
	logger       Logger
	debug        bool
	headers      http.Header
	maxTries     int
	retryDelay   time.Duration
	retryWaitMax time.Duration
	backoff      retryablehttp.Backoff
	timeout      time.Duration
	limiter      *rate.Limiter
	metrics      *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every attempt and response at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.headers.Set("User-Agent", userAgent)
	}
}

// WithDefaultHeader adds a header sent on every request.
func WithDefaultHeader(name, value string) Option {
	return func(c *Client) {
		c.headers.Set(name, value)
	}
}

// WithRetryConfig sets the total number of attempts and the pause between them.
func WithRetryConfig(maxTries int, delay time.Duration) Option {
	return func(c *Client) {
		if maxTries > 0 {
			c.maxTries = maxTries
		}

		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithBackoff replaces the fixed delay with another schedule. waitMax caps
// the pause for schedules that grow.
func WithBackoff(backoff retryablehttp.Backoff, waitMax time.Duration) Option {
	return func(c *Client) {
		c.backoff = backoff
		c.retryWaitMax = waitMax
	}
}

// WithTimeout bounds a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit caps the attempts per second sent by this client.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics records attempts and retries on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithHTTPClient replaces the underlying client. Its transport is wrapped,
// not replaced, so test servers with custom TLS keep working.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// FixedBackoff waits the minimum delay before every retry.
func FixedBackoff(minWait, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return minWait
}

// ExponentialBackoff doubles the delay on each retry and honors Retry-After.
var ExponentialBackoff retryablehttp.Backoff = retryablehttp.DefaultBackoff

// NewClient creates a client for baseURL. A nil credential sends anonymous requests.
func NewClient(baseURL string, credential auth.Credential, opts ...Option) (*Client, error) {
	if credential == nil {
		credential = auth.Anonymous{}
	}

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		credential: credential,
		headers:    make(http.Header),
		maxTries:   constants.DefaultMaxTries,
		retryDelay: constants.DefaultRetryDelay,
		backoff:    FixedBackoff,
		timeout:    constants.DefaultHTTPTimeout,
	}

	client.headers.Set("User-Agent", constants.DefaultUserAgent)
	client.headers.Set(constants.VersionHeader, constants.APIVersion)
	client.headers.Set(constants.CorrelationIDHeader, uuid.NewString())

	for _, opt := range opts {
		opt(client)
	}

	if client.retryWaitMax < client.retryDelay {
		client.retryWaitMax = client.retryDelay
	}

	httpClient, err := client.buildHTTPClient()
	if err != nil {
		return nil, err
	}

	client.httpClient = httpClient

	return client, nil
}

func (c *Client) buildHTTPClient() (*http.Client, error) {
	var base http.RoundTripper

	if c.httpClient != nil && c.httpClient.Transport != nil {
		base = c.httpClient.Transport
	} else {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		base = transport
	}

	if transport, ok := base.(*http.Transport); ok {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		err := c.credential.ConfigureTLS(transport.TLSClientConfig)
		if err != nil {
			return nil, fmt.Errorf("configuring credential: %w", err)
		}
	}

	return &http.Client{
		Timeout: c.timeout,
		Transport: &attemptTransport{
			next:       base,
			credential: c.credential,
			limiter:    c.limiter,
			metrics:    c.metrics,
			logger:     c.logger,
			debug:      c.debug,
		},
	}, nil
}

// BaseURL returns the URL paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request is a single logical request. Retries resend the same body.
type Request struct {
	Method string
	Path   string

	// URL, when set, is used verbatim instead of BaseURL + Path.
	URL string

	Query url.Values

	// Body is encoded as JSON unless RawBody is set.
	Body        interface{}
	RawBody     []byte
	ContentType string
	Accept      string
	Headers     http.Header

	// Anonymous skips the credential, for pre-authorized upload URLs.
	Anonymous bool

	// MaxTries and RetryDelay override the client settings when positive.
	MaxTries   int
	RetryDelay time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the media type without parameters.
func (r *Response) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}

	return mediaType
}

// Charset returns the declared charset, or an empty string.
func (r *Response) Charset() string {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}

	return params["charset"]
}

// Do sends req, retrying transport failures and 5xx responses. When every
// attempt fails with a 5xx the last response is returned without an error.
// The whole call, retries included, is bounded by (timeout + delay) * tries
// unless ctx already carries a deadline.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	maxTries := c.maxTries
	if req.MaxTries > 0 {
		maxTries = req.MaxTries
	}

	delay := c.retryDelay
	if req.RetryDelay > 0 {
		delay = req.RetryDelay
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, (c.timeout+delay)*time.Duration(maxTries))
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	retryClient := &retryablehttp.Client{
		HTTPClient:     c.httpClient,
		RetryWaitMin:   delay,
		RetryWaitMax:   maxDuration(delay, c.retryWaitMax),
		RetryMax:       maxTries - 1,
		CheckRetry:     checkRetry,
		Backoff:        c.backoff,
		ErrorHandler:   retryablehttp.PassthroughErrorHandler,
		RequestLogHook: c.logAttempt,
	}

	resp, err := retryClient.Do(httpReq)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, c.transportError(ctx, req, err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, req, fmt.Errorf("reading response body: %w", err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, req *Request) (*retryablehttp.Request, error) {
	target, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	body := req.RawBody
	contentType := req.ContentType

	if body == nil && req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "encoding request body", err)
		}

		if contentType == "" {
			contentType = constants.ContentTypeJSON
		}
	}

	var reader interface{}
	if body != nil {
		reader = body
	}

	if req.Anonymous {
		ctx = context.WithValue(ctx, anonymousKey{}, true)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "building request", err)
	}

	if !req.Anonymous {
		for name, values := range c.headers {
			httpReq.Header[name] = append([]string(nil), values...)
		}
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}

	for name, values := range req.Headers {
		httpReq.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	return httpReq, nil
}

func (c *Client) resolveURL(req *Request) (string, error) {
	target := req.URL
	if target == "" {
		target = c.baseURL + req.Path
	}

	if len(req.Query) == 0 {
		return target, nil
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", gamesvc.NewError(gamesvc.ErrorKindValidation, "parsing request URL", err)
	}

	query := parsed.Query()
	for key, values := range req.Query {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (c *Client) transportError(ctx context.Context, req *Request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, ctxErr)
	}

	var svcErr *gamesvc.ServiceResponseError
	if errors.As(err, &svcErr) {
		return err
	}

	if c.logger != nil {
		c.logger.Error("request failed", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"error":  err,
		})
	}

	return gamesvc.NewError(gamesvc.ErrorKindTransport, req.Method+" "+req.Path, err)
}

func (c *Client) logAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.metrics.ObserveRetry(req.Method)

	if c.logger != nil {
		c.logger.Warn("request attempt will be retried", map[string]interface{}{
			"attempt": attempt + 1,
			"method":  req.Method,
			"url":     req.URL.Redacted(),
		})
	}
}

// checkRetry retries transport failures and 5xx. 4xx, 429 included, is final.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		var svcErr *gamesvc.ServiceResponseError

		return !errors.As(err, &svcErr), nil
	}

	return resp.StatusCode >= http.StatusInternalServerError, nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}

	return b
}

// Get sends a GET accepting JSON.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Accept: constants.ContentTypeJSON})
}

// GetXML sends a GET accepting XML.
func (c *Client) GetXML(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Accept: constants.ContentTypeXML})
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Accept: constants.ContentTypeJSON})
}

// Put sends body as JSON. A nil body sends an empty request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body, Accept: constants.ContentTypeJSON})
}

// PutXML sends value encoded as an XML document.
func (c *Client) PutXML(ctx context.Context, path string, value interface{}) (*Response, error) {
	body, err := xml.Marshal(value)
	if err != nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "encoding XML request body", err)
	}

	return c.Do(ctx, &Request{
		Method:      http.MethodPut,
		Path:        path,
		RawBody:     append([]byte(xml.Header), body...),
		ContentType: constants.ContentTypeXML,
		Accept:      constants.ContentTypeXML,
	})
}

// Delete sends a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Accept: constants.ContentTypeJSON})
}

// Upload PUTs content to a pre-authorized blob URL without credentials.
func (c *Client) Upload(ctx context.Context, target string, content io.Reader) (*Response, error) {
	body, err := io.ReadAll(content)
	if err != nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "reading upload content", err)
	}

	return c.Do(ctx, &Request{
		Method:      http.MethodPut,
		URL:         target,
		RawBody:     body,
		ContentType: "application/octet-stream",
		Headers:     http.Header{constants.BlobTypeHeader: []string{constants.BlockBlob}},
		Anonymous:   true,
	})
}

type anonymousKey struct{}

// attemptTransport runs once per attempt: rate limit, credential, logging, metrics.
type attemptTransport struct {
	next       http.RoundTripper
	credential auth.Credential
	limiter    *rate.Limiter
	metrics    *metrics.Collector
	logger     Logger
	debug      bool
}

func (t *attemptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		err := t.limiter.Wait(req.Context())
		if err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	if anonymous, _ := req.Context().Value(anonymousKey{}).(bool); !anonymous {
		req = req.Clone(req.Context())

		err := t.credential.Apply(req)
		if err != nil {
			return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "applying credential", err)
		}
	}

	if t.debug && t.logger != nil {
		t.logger.Debug("HTTP request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.Redacted(),
		})
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	t.metrics.ObserveRequest(req.Method, statusCode)

	if t.debug && t.logger != nil {
		fields := map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.Redacted(),
			"status":   statusCode,
			"duration": time.Since(start).String(),
		}

		if err != nil {
			fields["error"] = err
		}

		t.logger.Debug("HTTP response", fields)
	}

	return resp, err
}
