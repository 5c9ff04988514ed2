package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

var insightsPath = containerPassthroughPath + "/insightsconfigitems"

// InsightsClient implements gamesvc.InsightsClient.
type InsightsClient struct {
	httpClient *http.Client
}

// NewInsightsClient creates a new insights client.
func NewInsightsClient(httpClient *http.Client) *InsightsClient {
	return &InsightsClient{
		httpClient: httpClient,
	}
}

// List implements gamesvc.InsightsClient.List.
func (c *InsightsClient) List(ctx context.Context) (*gamesvc.InsightsConfigItems, error) {
	resp, err := c.httpClient.Get(ctx, insightsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("listing insights configuration: %w", err)
	}

	items, err := decodeCollection[gamesvc.InsightsConfigItems](resp)
	if err != nil {
		return nil, fmt.Errorf("listing insights configuration: %w", err)
	}

	return items, nil
}

// Create implements gamesvc.InsightsClient.Create.
func (c *InsightsClient) Create(ctx context.Context, item *gamesvc.InsightsConfigItem) (bool, error) {
	err := validateInsightsItem(item)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Post(ctx, insightsPath, item)
	if err != nil {
		return false, fmt.Errorf("creating insights configuration: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("creating insights configuration: %w", err)
	}

	return ok, nil
}

// Update implements gamesvc.InsightsClient.Update. The item is addressed by
// its target name.
func (c *InsightsClient) Update(ctx context.Context, item *gamesvc.InsightsConfigItem) (bool, error) {
	err := validateInsightsItem(item)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Put(ctx, joinPath(insightsPath, item.TargetName), item)
	if err != nil {
		return false, fmt.Errorf("updating insights configuration: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("updating insights configuration: %w", err)
	}

	return ok, nil
}

// Remove implements gamesvc.InsightsClient.Remove.
func (c *InsightsClient) Remove(ctx context.Context, targetName string) (bool, error) {
	if targetName == "" {
		return false, gamesvc.NewError(gamesvc.ErrorKindValidation, "target name is required", nil)
	}

	resp, err := c.httpClient.Delete(ctx, joinPath(insightsPath, targetName))
	if err != nil {
		return false, fmt.Errorf("removing insights configuration: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing insights configuration: %w", err)
	}

	return ok, nil
}

func validateInsightsItem(item *gamesvc.InsightsConfigItem) error {
	if item == nil || item.TargetName == "" {
		return gamesvc.NewError(gamesvc.ErrorKindValidation, "target name is required", nil)
	}

	return nil
}
