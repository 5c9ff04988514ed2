package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// ReportsClient implements gamesvc.ReportsClient.
type ReportsClient struct {
	httpClient *http.Client
}

// NewReportsClient creates a new reports client.
func NewReportsClient(httpClient *http.Client) *ReportsClient {
	return &ReportsClient{
		httpClient: httpClient,
	}
}

// getReport fetches a JSON report below the cloud game. A missing report is
// returned as a zero value.
func getReport[T any](ctx context.Context, c *http.Client, name string, platform gamesvc.Platform, query url.Values, segments ...string) (*T, error) {
	path, err := cloudGamePath(name, platform, segments...)
	if err != nil {
		return nil, err
	}

	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	return decodeCollection[T](resp)
}

// Summary implements gamesvc.ReportsClient.Summary.
func (c *ReportsClient) Summary(ctx context.Context, cloudGame string, platform gamesvc.Platform) (*gamesvc.DashboardSummary, error) {
	summary, err := getReport[gamesvc.DashboardSummary](ctx, c.httpClient, cloudGame, platform,
		url.Values{"Details": []string{"DashboardSummary"}}, "monitoring")
	if err != nil {
		return nil, fmt.Errorf("getting dashboard summary: %w", err)
	}

	return summary, nil
}

// Deployments implements gamesvc.ReportsClient.Deployments.
func (c *ReportsClient) Deployments(ctx context.Context, cloudGame string, platform gamesvc.Platform) (*gamesvc.DeploymentData, error) {
	data, err := getReport[gamesvc.DeploymentData](ctx, c.httpClient, cloudGame, platform, nil,
		"poolunits", "reports", "deployments")
	if err != nil {
		return nil, fmt.Errorf("getting deployments report: %w", err)
	}

	return data, nil
}

// Pools implements gamesvc.ReportsClient.Pools.
func (c *ReportsClient) Pools(ctx context.Context, cloudGame string, platform gamesvc.Platform) (*gamesvc.PoolData, error) {
	data, err := getReport[gamesvc.PoolData](ctx, c.httpClient, cloudGame, platform, nil,
		"poolunits", "reports", "servicepools")
	if err != nil {
		return nil, fmt.Errorf("getting service pools report: %w", err)
	}

	return data, nil
}

// Counters implements gamesvc.ReportsClient.Counters.
func (c *ReportsClient) Counters(ctx context.Context, cloudGame string, platform gamesvc.Platform) ([]string, error) {
	names, err := getReport[[]string](ctx, c.httpClient, cloudGame, platform, nil, "monitoring", "counters")
	if err != nil {
		return nil, fmt.Errorf("listing counters: %w", err)
	}

	return *names, nil
}

// CounterData implements gamesvc.ReportsClient.CounterData.
func (c *ReportsClient) CounterData(ctx context.Context, cloudGame string, platform gamesvc.Platform, query *gamesvc.CounterQuery) (*gamesvc.CounterChartData, error) {
	if query == nil || len(query.CounterNames) == 0 {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "at least one counter name is required", nil)
	}

	values := url.Values{}
	values.Set("counterNames", strings.Join(query.CounterNames, ","))

	if query.GeoRegion != "" {
		values.Set("geoRegion", query.GeoRegion)
	}

	if !query.StartTime.IsZero() {
		values.Set("startTime", query.StartTime.UTC().Format(time.RFC3339))
	}

	if !query.EndTime.IsZero() {
		values.Set("endTime", query.EndTime.UTC().Format(time.RFC3339))
	}

	if query.Zoom > 0 {
		values.Set("zoom", formatTimeSpan(query.Zoom))
	}

	data, err := getReport[gamesvc.CounterChartData](ctx, c.httpClient, cloudGame, platform, values,
		"monitoring", "counterdata")
	if err != nil {
		return nil, fmt.Errorf("getting counter data: %w", err)
	}

	return data, nil
}

// formatTimeSpan renders d as hh:mm:ss, the interval format the monitoring
// API accepts.
func formatTimeSpan(d time.Duration) string {
	d = d.Round(time.Second)

	hours := int(d / time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)
	seconds := int(d%time.Minute) / int(time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
