package constants

import "errors"

// ErrNoCredentialConfigured is returned when neither a token nor a certificate is set.
var ErrNoCredentialConfigured = errors.New("no credential configured, set a token or a certificate and key file")

// Credential errors.
var (
	ErrMissingAccessToken = errors.New("access token is empty")
	ErrMissingCertificate = errors.New("certificate and key files are required")
)

// Operation store errors.
var (
	ErrOperationNotFound     = errors.New("operation not found")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS operation store")
	ErrUnsupportedStoreType  = errors.New("unsupported operation store type")
	ErrOperationStoreDisable = errors.New("operation store disabled")
)

// Validation errors.
var (
	ErrNameRequired          = errors.New("name is required")
	ErrFileRequired          = errors.New("file is required")
	ErrMissingUploadLocation = errors.New("service did not return an upload location")
	ErrCloudGameDeployed     = errors.New("cloud game must be stopped before it can be removed")
)
