package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// AssetsClient implements gamesvc.AssetsClient.
type AssetsClient struct {
	httpClient *http.Client
	registrar  *registrar
}

// NewAssetsClient creates a new assets client.
func NewAssetsClient(httpClient *http.Client, registrar *registrar) *AssetsClient {
	return &AssetsClient{
		httpClient: httpClient,
		registrar:  registrar,
	}
}

var assetsPath = containerPassthroughPath + "/assets"

type assetMetadata struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// List implements gamesvc.AssetsClient.List.
func (c *AssetsClient) List(ctx context.Context, cloudGameID string) (*gamesvc.AssetCollection, error) {
	resp, err := c.httpClient.Get(ctx, assetsPath, cloudGameIDQuery(cloudGameID))
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	list, err := decodeCollection[gamesvc.AssetCollection](resp)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	return list, nil
}

// Create implements gamesvc.AssetsClient.Create and returns the id of the
// new asset.
func (c *AssetsClient) Create(ctx context.Context, request *gamesvc.AssetRequest) (string, error) {
	if request == nil || request.Name == "" {
		return "", gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	if request.Content == nil {
		return "", gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrFileRequired.Error(), constants.ErrFileRequired)
	}

	err := c.registrar.ensureContainer(ctx)
	if err != nil {
		return "", fmt.Errorf("creating asset: %w", err)
	}

	metadata := assetMetadata{
		Name:     request.Name,
		Filename: request.FileName,
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPost, assetsPath, metadata)
	if err != nil {
		return "", fmt.Errorf("creating asset: %w", err)
	}

	created, err := decodeCreated[gamesvc.AssetPostResponse](resp)
	if err != nil {
		return "", fmt.Errorf("creating asset: %w", err)
	}

	err = uploadThenCommit(ctx, c.httpClient, created.AssetPreAuthURL, request.Content,
		joinPath(assetsPath, created.AssetID), metadata)
	if err != nil {
		return created.AssetID, fmt.Errorf("uploading asset %s: %w", created.AssetID, err)
	}

	return created.AssetID, nil
}

// Remove implements gamesvc.AssetsClient.Remove.
func (c *AssetsClient) Remove(ctx context.Context, assetID string) (bool, error) {
	resp, err := c.httpClient.Delete(ctx, joinPath(assetsPath, assetID))
	if err != nil {
		return false, fmt.Errorf("removing asset: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing asset: %w", err)
	}

	return ok, nil
}
