package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// CertificatesClient implements gamesvc.CertificatesClient.
type CertificatesClient struct {
	httpClient *http.Client
	registrar  *registrar
}

// NewCertificatesClient creates a new certificates client.
func NewCertificatesClient(httpClient *http.Client, registrar *registrar) *CertificatesClient {
	return &CertificatesClient{
		httpClient: httpClient,
		registrar:  registrar,
	}
}

var certificatesPath = containerPassthroughPath + "/certificates"

type certificateMetadata struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Password string `json:"password,omitempty"`
}

// List implements gamesvc.CertificatesClient.List.
func (c *CertificatesClient) List(ctx context.Context, cloudGameID string) (*gamesvc.CertificateCollection, error) {
	resp, err := c.httpClient.Get(ctx, certificatesPath, cloudGameIDQuery(cloudGameID))
	if err != nil {
		return nil, fmt.Errorf("listing certificates: %w", err)
	}

	list, err := decodeCollection[gamesvc.CertificateCollection](resp)
	if err != nil {
		return nil, fmt.Errorf("listing certificates: %w", err)
	}

	return list, nil
}

// Create implements gamesvc.CertificatesClient.Create.
func (c *CertificatesClient) Create(ctx context.Context, request *gamesvc.CertificateRequest) (*gamesvc.ItemCreated, error) {
	if request == nil || request.Name == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	if request.Content == nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrFileRequired.Error(), constants.ErrFileRequired)
	}

	err := c.registrar.ensureContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	metadata := certificateMetadata{
		Name:     request.Name,
		Filename: request.FileName,
		Password: request.Password,
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPost, certificatesPath, metadata,
		formFile{field: "certificate", fileName: request.FileName, content: request.Content})
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	created, err := decodeCreated[gamesvc.ItemCreated](resp)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	return created, nil
}

// Remove implements gamesvc.CertificatesClient.Remove. It returns true when
// the certificate was deleted.
func (c *CertificatesClient) Remove(ctx context.Context, certificateID string) (bool, error) {
	resp, err := c.httpClient.Delete(ctx, joinPath(certificatesPath, certificateID))
	if err != nil {
		return false, fmt.Errorf("removing certificate: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing certificate: %w", err)
	}

	return ok, nil
}
