package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// GamePackagesClient implements gamesvc.GamePackagesClient.
type GamePackagesClient struct {
	httpClient *http.Client
}

// NewGamePackagesClient creates a new game packages client.
func NewGamePackagesClient(httpClient *http.Client) *GamePackagesClient {
	return &GamePackagesClient{
		httpClient: httpClient,
	}
}

type gamePackageMetadata struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Active   bool   `json:"active"`
}

func gamePackagesPath(cloudGame string, platform gamesvc.Platform, vmPackageID string, gamePackageID ...string) (string, error) {
	return cloudGamePath(cloudGame, platform, append([]string{"images", vmPackageID, "CodeFiles"}, gamePackageID...)...)
}

// List implements gamesvc.GamePackagesClient.List.
func (c *GamePackagesClient) List(ctx context.Context, cloudGame string, platform gamesvc.Platform, vmPackageID string) (*gamesvc.GamePackageCollection, error) {
	path, err := gamePackagesPath(cloudGame, platform, vmPackageID)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing game packages: %w", err)
	}

	list, err := decodeCollection[gamesvc.GamePackageCollection](resp)
	if err != nil {
		return nil, fmt.Errorf("listing game packages: %w", err)
	}

	return list, nil
}

// Create implements gamesvc.GamePackagesClient.Create and returns the id of
// the new game package.
func (c *GamePackagesClient) Create(ctx context.Context, cloudGame string, platform gamesvc.Platform, vmPackageID string, request *gamesvc.GamePackageRequest) (string, error) {
	if request == nil || request.Name == "" {
		return "", gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	if request.Content == nil {
		return "", gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrFileRequired.Error(), constants.ErrFileRequired)
	}

	path, err := gamePackagesPath(cloudGame, platform, vmPackageID)
	if err != nil {
		return "", err
	}

	metadata := gamePackageMetadata{
		Name:     request.Name,
		Filename: request.FileName,
		Active:   request.Active,
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPost, path, metadata)
	if err != nil {
		return "", fmt.Errorf("creating game package: %w", err)
	}

	created, err := decodeCreated[gamesvc.GamePackagePostResponse](resp)
	if err != nil {
		return "", fmt.Errorf("creating game package: %w", err)
	}

	commitPath, err := gamePackagesPath(cloudGame, platform, vmPackageID, created.GamePackageID)
	if err != nil {
		return "", err
	}

	err = uploadThenCommit(ctx, c.httpClient, created.GamePackagePreAuthURL, request.Content, commitPath, metadata)
	if err != nil {
		return created.GamePackageID, fmt.Errorf("uploading game package %s: %w", created.GamePackageID, err)
	}

	return created.GamePackageID, nil
}

// Update implements gamesvc.GamePackagesClient.Update. Only the metadata
// changes; request.Content is ignored.
func (c *GamePackagesClient) Update(ctx context.Context, cloudGame string, platform gamesvc.Platform, vmPackageID, gamePackageID string, request *gamesvc.GamePackageRequest) (bool, error) {
	if request == nil {
		return false, gamesvc.NewError(gamesvc.ErrorKindValidation, "game package request is required", nil)
	}

	path, err := gamePackagesPath(cloudGame, platform, vmPackageID, gamePackageID)
	if err != nil {
		return false, err
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPut, path, gamePackageMetadata{
		Name:     request.Name,
		Filename: request.FileName,
		Active:   request.Active,
	})
	if err != nil {
		return false, fmt.Errorf("updating game package: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("updating game package: %w", err)
	}

	return ok, nil
}

// Remove implements gamesvc.GamePackagesClient.Remove.
func (c *GamePackagesClient) Remove(ctx context.Context, cloudGame string, platform gamesvc.Platform, vmPackageID, gamePackageID string) (bool, error) {
	path, err := gamePackagesPath(cloudGame, platform, vmPackageID, gamePackageID)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return false, fmt.Errorf("removing game package: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing game package: %w", err)
	}

	return ok, nil
}
