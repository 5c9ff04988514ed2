package client

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/auth"
	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/metrics"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// Client implements the gamesvc.Client interface.
type Client struct {
	httpClient *http.Client
	poller     *operation.Poller
	store      gamesvc.OperationStore
	logger     gamesvc.Logger
	metrics    *metrics.Collector
	registrar  *registrar

	// Resource clients
	cloudGames      *CloudGamesClient
	vmPackages      *VMPackagesClient
	gamePackages    *GamePackagesClient
	certificates    *CertificatesClient
	assets          *AssetsClient
	gameModeSchemas *GameModeSchemasClient
	gameModes       *GameModesClient
	reports         *ReportsClient
	diagnostics     *DiagnosticsClient
	insights        *InsightsClient
	operations      *OperationsClient
}

// createCredential picks the credential described by config. A certificate
// wins over a token source, which wins over a static token.
func createCredential(config *gamesvc.Config) (auth.Credential, error) {
	switch {
	case config.Certificate != nil:
		return auth.NewCertificateCredential(*config.Certificate), nil
	case config.CertFile != "" || config.KeyFile != "":
		return auth.LoadCertificateCredential(config.CertFile, config.KeyFile)
	case config.TokenSource != nil:
		return auth.NewBearerCredential(config.TokenSource), nil
	case config.AccessToken != "":
		return auth.NewBearerCredential(auth.StaticToken(config.AccessToken)), nil
	default:
		return nil, constants.ErrNoCredentialConfigured
	}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *gamesvc.Config, collector *metrics.Collector) []http.Option {
	httpOpts := []http.Option{http.WithMetrics(collector)}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.ClientVersion != "" {
		httpOpts = append(httpOpts, http.WithDefaultHeader(constants.ClientVersionHeader, config.ClientVersion))
	}

	if config.MaxTries > 0 || config.RetryDelay > 0 {
		delay := config.RetryDelay
		if delay <= 0 {
			delay = constants.DefaultRetryDelay
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.MaxTries, delay))
	}

	if config.ExponentialBackoff {
		httpOpts = append(httpOpts, http.WithBackoff(http.ExponentialBackoff, config.RetryWaitMax))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	return httpOpts
}

// createPollerOptions builds operation poller options from config.
func createPollerOptions(config *gamesvc.Config, collector *metrics.Collector, store gamesvc.OperationStore) []operation.Option {
	pollerOpts := []operation.Option{
		operation.WithMetrics(collector),
		operation.WithStore(store),
	}

	if config.Logger != nil {
		pollerOpts = append(pollerOpts, operation.WithLogger(config.Logger))
	}

	if config.PollInterval > 0 {
		pollerOpts = append(pollerOpts, operation.WithInterval(config.PollInterval))
	}

	if config.PollTimeout > 0 {
		pollerOpts = append(pollerOpts, operation.WithTimeout(config.PollTimeout))
	}

	if config.RequestIDHeader != "" {
		pollerOpts = append(pollerOpts, operation.WithRequestIDHeader(config.RequestIDHeader))
	}

	return pollerOpts
}

// New creates a game services client. Endpoint is used as given; callers
// that accept user input should go through gsclient.New, which normalizes it.
func New(config *gamesvc.Config) (*Client, error) {
	if config == nil {
		return nil, gamesvc.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, gamesvc.ErrEndpointRequired
	}

	if config.SubscriptionID == "" {
		return nil, gamesvc.ErrSubscriptionRequired
	}

	credential, err := createCredential(config)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(config.MetricsRegisterer)

	baseURL := strings.TrimSuffix(config.Endpoint, "/") + "/" + config.SubscriptionID

	httpClient, err := http.NewClient(baseURL, credential, createHTTPClientOptions(config, collector)...)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	store := config.OperationStore
	if store == nil {
		store = operation.NewNoOpStore()
	}

	logger := config.Logger
	if logger == nil {
		logger = gamesvc.NopLogger{}
	}

	client := &Client{
		httpClient: httpClient,
		poller:     operation.NewPoller(httpClient, createPollerOptions(config, collector, store)...),
		store:      store,
		logger:     logger,
		metrics:    collector,
	}

	client.initializeResourceClients()

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.registrar = newRegistrar(c.httpClient, c.poller, c.logger)
	c.cloudGames = NewCloudGamesClient(c.httpClient, c.poller, c.registrar, c.logger, c.metrics)
	c.vmPackages = NewVMPackagesClient(c.httpClient)
	c.gamePackages = NewGamePackagesClient(c.httpClient)
	c.certificates = NewCertificatesClient(c.httpClient, c.registrar)
	c.assets = NewAssetsClient(c.httpClient, c.registrar)
	c.gameModeSchemas = NewGameModeSchemasClient(c.httpClient, c.registrar)
	c.gameModes = NewGameModesClient(c.httpClient)
	c.reports = NewReportsClient(c.httpClient)
	c.diagnostics = NewDiagnosticsClient(c.httpClient)
	c.insights = NewInsightsClient(c.httpClient)
	c.operations = NewOperationsClient(c.poller, c.store)
}

// CloudGames implements gamesvc.Client.
func (c *Client) CloudGames() gamesvc.CloudGamesClient {
	return c.cloudGames
}

// VMPackages implements gamesvc.Client.
func (c *Client) VMPackages() gamesvc.VMPackagesClient {
	return c.vmPackages
}

// GamePackages implements gamesvc.Client.
func (c *Client) GamePackages() gamesvc.GamePackagesClient {
	return c.gamePackages
}

// Certificates implements gamesvc.Client.
func (c *Client) Certificates() gamesvc.CertificatesClient {
	return c.certificates
}

// Assets implements gamesvc.Client.
func (c *Client) Assets() gamesvc.AssetsClient {
	return c.assets
}

// GameModeSchemas implements gamesvc.Client.
func (c *Client) GameModeSchemas() gamesvc.GameModeSchemasClient {
	return c.gameModeSchemas
}

// GameModes implements gamesvc.Client.
func (c *Client) GameModes() gamesvc.GameModesClient {
	return c.gameModes
}

// Reports implements gamesvc.Client.
func (c *Client) Reports() gamesvc.ReportsClient {
	return c.reports
}

// Diagnostics implements gamesvc.Client.
func (c *Client) Diagnostics() gamesvc.DiagnosticsClient {
	return c.diagnostics
}

// Insights implements gamesvc.Client.
func (c *Client) Insights() gamesvc.InsightsClient {
	return c.insights
}

// Operations implements gamesvc.Client.
func (c *Client) Operations() gamesvc.OperationsClient {
	return c.operations
}

type resourceProviderProperties struct {
	XMLName    xml.Name                   `xml:"http://schemas.microsoft.com/windowsazure ResourceProviderProperties"`
	Properties []resourceProviderProperty `xml:"ResourceProviderProperty"`
}

type resourceProviderProperty struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

const publisherInfoKey = "publisherInfo"

// Properties implements gamesvc.Client.
func (c *Client) Properties(ctx context.Context) (*gamesvc.Properties, error) {
	resp, err := c.httpClient.GetXML(ctx, propertiesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("getting resource provider properties: %w", err)
	}

	if resp.StatusCode == nethttp.StatusNotFound {
		return nil, nil
	}

	list, err := http.DecodeXML[resourceProviderProperties](resp)
	if err != nil {
		return nil, fmt.Errorf("getting resource provider properties: %w", err)
	}

	for _, property := range list.Properties {
		if property.Key != publisherInfoKey || strings.TrimSpace(property.Value) == "" {
			continue
		}

		var properties gamesvc.Properties

		err = json.Unmarshal([]byte(property.Value), &properties)
		if err != nil {
			return nil, gamesvc.NewError(gamesvc.ErrorKindDecode, "parsing publisher info", err)
		}

		properties.Platform = strings.ToLower(properties.Platform)

		return &properties, nil
	}

	return nil, nil
}
