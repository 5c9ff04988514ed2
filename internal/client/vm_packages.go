package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// VMPackagesClient implements gamesvc.VMPackagesClient.
type VMPackagesClient struct {
	httpClient *http.Client
}

// NewVMPackagesClient creates a new VM packages client.
func NewVMPackagesClient(httpClient *http.Client) *VMPackagesClient {
	return &VMPackagesClient{
		httpClient: httpClient,
	}
}

type vmPackageMetadata struct {
	Name               string   `json:"name"`
	CspkgFilename      string   `json:"cspkgFilename"`
	CscfgFilename      string   `json:"cscfgFilename"`
	MaxAllowedPlayers  int      `json:"maxAllowedPlayers"`
	MinRequiredPlayers int      `json:"minRequiredPlayers"`
	AssetID            string   `json:"assetId,omitempty"`
	CertificateIDs     []string `json:"certificateIds,omitempty"`
}

// List implements gamesvc.VMPackagesClient.List.
func (c *VMPackagesClient) List(ctx context.Context, cloudGame string, platform gamesvc.Platform) (*gamesvc.VMPackageCollection, error) {
	path, err := cloudGamePath(cloudGame, platform, "images")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing VM packages: %w", err)
	}

	list, err := decodeCollection[gamesvc.VMPackageCollection](resp)
	if err != nil {
		return nil, fmt.Errorf("listing VM packages: %w", err)
	}

	return list, nil
}

// Create implements gamesvc.VMPackagesClient.Create. The cscfg travels with
// the metadata; the cspkg is uploaded to the location the service returns,
// then the metadata is sent again to commit the package.
func (c *VMPackagesClient) Create(ctx context.Context, cloudGame string, platform gamesvc.Platform, request *gamesvc.VMPackageRequest) (*gamesvc.VMPackagePostResponse, error) {
	if request == nil || request.Name == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	if request.Cspkg == nil || request.Cscfg == nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "cspkg and cscfg are required", constants.ErrFileRequired)
	}

	path, err := cloudGamePath(cloudGame, platform, "images")
	if err != nil {
		return nil, err
	}

	metadata := vmPackageMetadata{
		Name:               request.Name,
		CspkgFilename:      request.CspkgFileName,
		CscfgFilename:      request.CscfgFileName,
		MaxAllowedPlayers:  request.MaxPlayers,
		MinRequiredPlayers: 1,
		AssetID:            request.AssetID,
		CertificateIDs:     request.CertificateIDs,
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPost, path, metadata,
		formFile{field: "packageconfig", fileName: request.CscfgFileName, content: request.Cscfg})
	if err != nil {
		return nil, fmt.Errorf("creating VM package: %w", err)
	}

	created, err := decodeCreated[gamesvc.VMPackagePostResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("creating VM package: %w", err)
	}

	commitPath, err := cloudGamePath(cloudGame, platform, "images", created.VMPackageID)
	if err != nil {
		return nil, err
	}

	err = uploadThenCommit(ctx, c.httpClient, created.CspkgPreAuthURL, request.Cspkg, commitPath, metadata)
	if err != nil {
		return created, fmt.Errorf("uploading VM package %s: %w", created.VMPackageID, err)
	}

	return created, nil
}

// Remove implements gamesvc.VMPackagesClient.Remove.
func (c *VMPackagesClient) Remove(ctx context.Context, cloudGame string, platform gamesvc.Platform, vmPackageID string) (bool, error) {
	path, err := cloudGamePath(cloudGame, platform, "images", vmPackageID)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return false, fmt.Errorf("removing VM package: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing VM package: %w", err)
	}

	return ok, nil
}
