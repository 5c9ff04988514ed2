package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
)

// Credential authenticates requests to the management API. It is resolved
// once, when the transport is built: ConfigureTLS runs against the transport
// TLS configuration and Apply runs on every outgoing attempt.
type Credential interface {
	Apply(req *http.Request) error
	ConfigureTLS(config *tls.Config) error
}

// TokenSource returns the bearer token to send with a request.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// BearerCredential sends an Authorization header on every request.
type BearerCredential struct {
	source TokenSource
}

// NewBearerCredential creates a credential backed by source.
func NewBearerCredential(source TokenSource) *BearerCredential {
	return &BearerCredential{source: source}
}

// Apply implements Credential.
func (c *BearerCredential) Apply(req *http.Request) error {
	token, err := c.source(req.Context())
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}

	if token == "" {
		return constants.ErrMissingAccessToken
	}

	req.Header.Set("Authorization", "Bearer "+token)

	return nil
}

// ConfigureTLS implements Credential. Bearer tokens do not touch TLS.
func (c *BearerCredential) ConfigureTLS(*tls.Config) error {
	return nil
}

// CertificateCredential presents a management certificate during the TLS
// handshake. It sets no request headers.
type CertificateCredential struct {
	certificate tls.Certificate
}

// NewCertificateCredential wraps an already loaded key pair.
func NewCertificateCredential(certificate tls.Certificate) *CertificateCredential {
	return &CertificateCredential{certificate: certificate}
}

// LoadCertificateCredential reads a PEM encoded certificate and key.
func LoadCertificateCredential(certFile, keyFile string) (*CertificateCredential, error) {
	if certFile == "" || keyFile == "" {
		return nil, constants.ErrMissingCertificate
	}

	certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading management certificate: %w", err)
	}

	return NewCertificateCredential(certificate), nil
}

// Apply implements Credential.
func (c *CertificateCredential) Apply(*http.Request) error {
	return nil
}

// ConfigureTLS implements Credential.
func (c *CertificateCredential) ConfigureTLS(config *tls.Config) error {
	if config == nil {
		return errNilTLSConfig
	}

	config.Certificates = append(config.Certificates, c.certificate)

	return nil
}

var errNilTLSConfig = errors.New("tls config is nil")

// Anonymous sends requests without credentials.
type Anonymous struct{}

// Apply implements Credential.
func (Anonymous) Apply(*http.Request) error { return nil }

// ConfigureTLS implements Credential.
func (Anonymous) ConfigureTLS(*tls.Config) error { return nil }
