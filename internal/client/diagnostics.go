package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// DiagnosticsClient implements gamesvc.DiagnosticsClient.
type DiagnosticsClient struct {
	httpClient *http.Client
}

// NewDiagnosticsClient creates a new diagnostics client.
func NewDiagnosticsClient(httpClient *http.Client) *DiagnosticsClient {
	return &DiagnosticsClient{
		httpClient: httpClient,
	}
}

// LogFiles implements gamesvc.DiagnosticsClient.LogFiles.
func (c *DiagnosticsClient) LogFiles(ctx context.Context, cloudGame string, platform gamesvc.Platform, instanceID, geoRegion string) (*gamesvc.DiagnosticFiles, error) {
	files, err := c.files(ctx, cloudGame, platform, "logs", instanceID, geoRegion)
	if err != nil {
		return nil, fmt.Errorf("listing log files: %w", err)
	}

	return files, nil
}

// DumpFiles implements gamesvc.DiagnosticsClient.DumpFiles.
func (c *DiagnosticsClient) DumpFiles(ctx context.Context, cloudGame string, platform gamesvc.Platform, instanceID, geoRegion string) (*gamesvc.DiagnosticFiles, error) {
	files, err := c.files(ctx, cloudGame, platform, "dumps", instanceID, geoRegion)
	if err != nil {
		return nil, fmt.Errorf("listing dump files: %w", err)
	}

	return files, nil
}

func (c *DiagnosticsClient) files(ctx context.Context, cloudGame string, platform gamesvc.Platform, kind, instanceID, geoRegion string) (*gamesvc.DiagnosticFiles, error) {
	if instanceID == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "instance id is required", nil)
	}

	var query url.Values
	if geoRegion != "" {
		query = url.Values{"geoRegion": []string{geoRegion}}
	}

	return getReport[gamesvc.DiagnosticFiles](ctx, c.httpClient, cloudGame, platform, query,
		"diagnostics", kind, instanceID)
}

// Clusters implements gamesvc.DiagnosticsClient.Clusters. Empty query fields
// do not filter.
func (c *DiagnosticsClient) Clusters(ctx context.Context, cloudGame string, platform gamesvc.Platform, query *gamesvc.ClusterQuery) (*gamesvc.ClusterCollection, error) {
	values := url.Values{}

	if query != nil {
		for key, value := range map[string]string{
			"geoRegion": query.GeoRegion,
			"status":    query.Status,
			"clusterId": query.ClusterID,
			"agentId":   query.AgentID,
		} {
			if value != "" {
				values.Set(key, value)
			}
		}
	}

	clusters, err := getReport[gamesvc.ClusterCollection](ctx, c.httpClient, cloudGame, platform, values, "clusters")
	if err != nil {
		return nil, fmt.Errorf("listing clusters: %w", err)
	}

	return clusters, nil
}
