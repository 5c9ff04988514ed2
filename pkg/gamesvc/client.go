package gamesvc

import (
	"context"
	"crypto/tls"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CloudGamesClient manages cloud game resources.
type CloudGamesClient interface {
	// List returns every cloud game in the subscription. Entries the
	// listing knows about but the game service does not are removed in
	// the background and left out of the result. A subscription with no
	// game services cloud service has no games and yields an empty list.
	List(ctx context.Context) ([]CloudGame, error)

	// Get returns nil without an error when the game does not exist.
	Get(ctx context.Context, name string, platform Platform) (*CloudGame, error)

	Create(ctx context.Context, request *CloudGameRequest) (*OperationResult, error)
	Remove(ctx context.Context, name string, platform Platform, checkStateFirst bool) (*OperationResult, error)
	Deploy(ctx context.Context, name string, platform Platform, request *DeployRequest) (*OperationResult, error)
	Stop(ctx context.Context, name string, platform Platform, unpublishOnly bool) (*OperationResult, error)
	Configure(ctx context.Context, name string, platform Platform, resourceSets, sandboxes []string) (bool, error)
	RepairSessionHost(ctx context.Context, name string, platform Platform, sessionHostID string) (bool, error)
}

// VMPackagesClient manages the VM packages of a cloud game.
type VMPackagesClient interface {
	List(ctx context.Context, cloudGame string, platform Platform) (*VMPackageCollection, error)
	Create(ctx context.Context, cloudGame string, platform Platform, request *VMPackageRequest) (*VMPackagePostResponse, error)
	Remove(ctx context.Context, cloudGame string, platform Platform, vmPackageID string) (bool, error)
}

// GamePackagesClient manages the game packages of a VM package.
type GamePackagesClient interface {
	List(ctx context.Context, cloudGame string, platform Platform, vmPackageID string) (*GamePackageCollection, error)
	Create(ctx context.Context, cloudGame string, platform Platform, vmPackageID string, request *GamePackageRequest) (string, error)
	Update(ctx context.Context, cloudGame string, platform Platform, vmPackageID, gamePackageID string, request *GamePackageRequest) (bool, error)
	Remove(ctx context.Context, cloudGame string, platform Platform, vmPackageID, gamePackageID string) (bool, error)
}

// CertificatesClient manages subscription certificates.
type CertificatesClient interface {
	// List returns all certificates, or those of one cloud game when
	// cloudGameID is not empty.
	List(ctx context.Context, cloudGameID string) (*CertificateCollection, error)
	Create(ctx context.Context, request *CertificateRequest) (*ItemCreated, error)
	Remove(ctx context.Context, certificateID string) (bool, error)
}

// AssetsClient manages subscription assets.
type AssetsClient interface {
	List(ctx context.Context, cloudGameID string) (*AssetCollection, error)
	Create(ctx context.Context, request *AssetRequest) (string, error)
	Remove(ctx context.Context, assetID string) (bool, error)
}

// GameModeSchemasClient manages game mode schemas.
type GameModeSchemasClient interface {
	List(ctx context.Context, details bool) (*GameModeSchemaCollection, error)
	Create(ctx context.Context, name, fileName string, content io.Reader) (*ItemCreated, error)
	Remove(ctx context.Context, schemaID string) (bool, error)
}

// GameModesClient manages the game modes of a schema.
type GameModesClient interface {
	List(ctx context.Context, schemaID string) (*GameModeCollection, error)
	Create(ctx context.Context, schemaID, name, fileName string, content io.Reader) (*ItemCreated, error)
	Remove(ctx context.Context, schemaID, gameModeID string) (bool, error)
}

// ReportsClient reads monitoring data of a cloud game.
type ReportsClient interface {
	Summary(ctx context.Context, cloudGame string, platform Platform) (*DashboardSummary, error)
	Deployments(ctx context.Context, cloudGame string, platform Platform) (*DeploymentData, error)
	Pools(ctx context.Context, cloudGame string, platform Platform) (*PoolData, error)
	Counters(ctx context.Context, cloudGame string, platform Platform) ([]string, error)
	CounterData(ctx context.Context, cloudGame string, platform Platform, query *CounterQuery) (*CounterChartData, error)
}

// DiagnosticsClient enumerates diagnostic data of a cloud game.
type DiagnosticsClient interface {
	LogFiles(ctx context.Context, cloudGame string, platform Platform, instanceID, geoRegion string) (*DiagnosticFiles, error)
	DumpFiles(ctx context.Context, cloudGame string, platform Platform, instanceID, geoRegion string) (*DiagnosticFiles, error)
	Clusters(ctx context.Context, cloudGame string, platform Platform, query *ClusterQuery) (*ClusterCollection, error)
}

// InsightsClient manages insights configuration items.
type InsightsClient interface {
	List(ctx context.Context) (*InsightsConfigItems, error)
	Create(ctx context.Context, item *InsightsConfigItem) (bool, error)
	Update(ctx context.Context, item *InsightsConfigItem) (bool, error)
	Remove(ctx context.Context, targetName string) (bool, error)
}

// OperationsClient resumes and tracks asynchronous operations.
type OperationsClient interface {
	// Wait polls an operation by request id until it leaves InProgress or
	// the configured timeout elapses.
	Wait(ctx context.Context, requestID string) (*OperationResult, error)

	// List returns the operations recorded in the operation store.
	List(ctx context.Context) ([]OperationResult, error)

	// Forget removes an operation from the operation store.
	Forget(ctx context.Context, requestID string) error
}

// OperationStore persists operation results so that timed out operations
// can be resumed later.
type OperationStore interface {
	Save(ctx context.Context, result *OperationResult) error
	Get(ctx context.Context, requestID string) (*OperationResult, error)
	List(ctx context.Context) ([]OperationResult, error)
	Delete(ctx context.Context, requestID string) error
}

// Client is the game services management client.
type Client interface {
	CloudGames() CloudGamesClient
	VMPackages() VMPackagesClient
	GamePackages() GamePackagesClient
	Certificates() CertificatesClient
	Assets() AssetsClient
	GameModeSchemas() GameModeSchemasClient
	GameModes() GameModesClient
	Reports() ReportsClient
	Diagnostics() DiagnosticsClient
	Insights() InsightsClient
	Operations() OperationsClient

	// Properties returns the publisher information of the subscription,
	// or nil when the service has none.
	Properties(ctx context.Context) (*Properties, error)
}

// Config represents client configuration for building a gamesvc.Client.
//
// # Credentials
//
// Exactly one credential is used, in this order:
//  1. Certificate, or CertFile and KeyFile: a management certificate
//     presented during the TLS handshake.
//  2. TokenSource: a callback returning a bearer token for each request.
//  3. AccessToken: a static bearer token.
//
// # Retries and polling
//
// Requests are attempted MaxTries times in total (default 3) with a fixed
// RetryDelay between attempts (default 600ms). Only transport failures and
// 5xx responses are retried. Asynchronous operations are polled every
// PollInterval until PollTimeout has elapsed; a timed out operation is
// returned with state TimedOut and can be resumed through Operations().Wait.
type Config struct {
	// Endpoint is the management API base URL.
	Endpoint string

	// SubscriptionID is appended to Endpoint for every request.
	SubscriptionID string

	AccessToken string
	TokenSource func(ctx context.Context) (string, error)
	CertFile    string
	KeyFile     string
	Certificate *tls.Certificate

	MaxTries   int
	RetryDelay time.Duration

	// ExponentialBackoff switches from the fixed delay to an exponential
	// schedule capped at RetryWaitMax.
	ExponentialBackoff bool
	RetryWaitMax       time.Duration

	// HTTPTimeout bounds a single attempt.
	HTTPTimeout time.Duration

	PollInterval time.Duration
	PollTimeout  time.Duration

	// RequestIDHeader names the header carrying the operation id of a 202
	// response. Defaults to x-ms-request-id.
	RequestIDHeader string

	UserAgent     string
	ClientVersion string

	// RateLimit caps requests per second when positive.
	RateLimit float64
	RateBurst int

	Logger Logger
	Debug  bool

	// MetricsRegisterer receives the client collectors when set.
	MetricsRegisterer prometheus.Registerer

	// OperationStore records every waited operation when set.
	OperationStore OperationStore
}
