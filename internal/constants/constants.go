package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and operation store files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the per-attempt timeout for management API requests.
	DefaultHTTPTimeout = 100 * time.Second

	// ShortHTTPTimeout is used for blob uploads to pre-authorized URLs.
	ShortHTTPTimeout = 30 * time.Second
)

// Retry defaults for the management transport.
const (
	// DefaultMaxTries is the total number of attempts, including the first one.
	DefaultMaxTries = 3

	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 600 * time.Millisecond
)

// Operation polling defaults.
const (
	// DefaultPollInterval is the pause between operation status requests.
	DefaultPollInterval = 5 * time.Second

	// DefaultPollTimeout bounds the total time spent waiting for an operation.
	DefaultPollTimeout = 10 * time.Minute
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit bounds concurrent fallback fetches and orphan cleanups.
	DefaultConcurrencyLimit = 4
)

// Operation states reported by the status endpoint.
const (
	OperationStatusInProgress = "InProgress"
	OperationStatusSucceeded  = "Succeeded"
	OperationStatusFailed     = "Failed"
)

// Header names and values.
const (
	// RequestIDHeader carries the id of an accepted asynchronous operation.
	RequestIDHeader = "x-ms-request-id"

	// VersionHeader selects the management API version.
	VersionHeader = "x-ms-version"

	// APIVersion is the management API version sent on every request.
	APIVersion = "2013-11-01"

	// CorrelationIDHeader is set once per client and sent on every request.
	CorrelationIDHeader = "X-XblCorrelationId"

	// ClientVersionHeader identifies the client build to the service.
	ClientVersionHeader = "X-GameServices-ClientVersion"

	// BlobTypeHeader is required when uploading to a pre-authorized blob URL.
	BlobTypeHeader = "x-ms-blob-type"

	// BlockBlob is the only blob type the service hands out.
	BlockBlob = "BlockBlob"

	// DefaultUserAgent is sent when the caller does not configure one.
	DefaultUserAgent = "gameservices-client/1.0"
)

// Content types.
const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
	ContentTypeText = "text/plain"
)

// Management API document constants.
const (
	// AzureNamespace is the XML namespace of RDFE documents.
	AzureNamespace = "http://schemas.microsoft.com/windowsazure"

	// ResourceProviderNamespace is the provider namespace of every game resource.
	ResourceProviderNamespace = "gameservices"

	// DefaultServiceName is the cloud service holding all game resources.
	DefaultServiceName = "gameservices"

	// SchemaVersion is stamped on every resource envelope.
	SchemaVersion = "1.0"

	// DefaultGeoRegion is used when creating the cloud service.
	DefaultGeoRegion = "West US"

	// ContainerResourceType is the type of the per-subscription container resource.
	ContainerResourceType = "gameservicescontainer"

	// ContainerResourceName is the name of the per-subscription container resource.
	ContainerResourceName = "container"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// TimestampFormat is used for table output.
	TimestampFormat = "2006-01-02 15:04:05"
)

// Example program constants.
const (
	// MinimumArgumentCount is the program name plus the endpoint argument.
	MinimumArgumentCount = 2
)
