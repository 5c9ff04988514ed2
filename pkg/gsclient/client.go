package gsclient

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/client"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// New creates a game services client. A scheme-less endpoint is assumed to
// be https.
func New(config *gamesvc.Config) (gamesvc.Client, error) {
	if config == nil {
		return nil, gamesvc.ErrConfigRequired
	}

	if strings.TrimSpace(config.Endpoint) == "" {
		return nil, gamesvc.ErrEndpointRequired
	}

	normalized := *config
	normalized.Endpoint = NormalizeEndpoint(config.Endpoint)

	c, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeEndpoint trims surrounding space and a trailing slash and adds
// https:// when endpoint has no scheme.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// NewWithToken creates a client authenticating with a bearer token.
func NewWithToken(endpoint, subscriptionID, token string) (gamesvc.Client, error) {
	return New(&gamesvc.Config{
		Endpoint:       endpoint,
		SubscriptionID: subscriptionID,
		AccessToken:    token,
	})
}

// NewWithCertificate creates a client authenticating with a PEM encoded
// management certificate and key.
func NewWithCertificate(endpoint, subscriptionID, certFile, keyFile string) (gamesvc.Client, error) {
	return New(&gamesvc.Config{
		Endpoint:       endpoint,
		SubscriptionID: subscriptionID,
		CertFile:       certFile,
		KeyFile:        keyFile,
	})
}
