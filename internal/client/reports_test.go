package client

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsClient(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		query := r.URL.Query()

		switch route(r) {
		case "GET " + gamePassthroughPath + "/monitoring":
			assert.Equal(t, "DashboardSummary", query.Get("Details"))
			writeJSON(t, w, nethttp.StatusOK, gamesvc.DashboardSummary{TotalPlayers: 40, TotalSessions: 5})
		case "GET " + gamePassthroughPath + "/poolunits/reports/deployments":
			writeJSON(t, w, nethttp.StatusOK, gamesvc.DeploymentData{
				TotalActive: 3,
				Deployments: []gamesvc.DeploymentInfo{{GeoRegion: "West US", Active: 3}},
			})
		case "GET " + gamePassthroughPath + "/poolunits/reports/servicepools":
			writeJSON(t, w, nethttp.StatusOK, gamesvc.PoolData{Pools: []gamesvc.PoolInfo{{Name: "pool-1", Size: 10}}})
		case "GET " + gamePassthroughPath + "/monitoring/counters":
			writeJSON(t, w, nethttp.StatusOK, []string{"Players", "Sessions"})
		case "GET " + gamePassthroughPath + "/monitoring/counterdata":
			assert.Equal(t, "Players,Sessions", query.Get("counterNames"))
			assert.Equal(t, "West US", query.Get("geoRegion"))
			assert.Equal(t, "2026-03-01T08:00:00Z", query.Get("startTime"))
			assert.Equal(t, "2026-03-01T09:00:00Z", query.Get("endTime"))
			assert.Equal(t, "00:05:00", query.Get("zoom"))
			writeJSON(t, w, nethttp.StatusOK, gamesvc.CounterChartData{
				Series: []gamesvc.CounterSeries{{Name: "Players", Points: []gamesvc.CounterPoint{{Timestamp: start, Value: 12}}}},
			})
		default:
			t.Errorf("unexpected request %s", route(r))
			w.WriteHeader(nethttp.StatusInternalServerError)
		}
	}))
	defer server.Close()

	reports := NewReportsClient(newTestHTTPClient(t, server.URL))
	ctx := context.Background()

	summary, err := reports.Summary(ctx, "alpha", gamesvc.PlatformXboxOne)
	require.NoError(t, err)
	assert.Equal(t, 40, summary.TotalPlayers)

	deployments, err := reports.Deployments(ctx, "alpha", gamesvc.PlatformXboxOne)
	require.NoError(t, err)
	assert.Equal(t, 3, deployments.TotalActive)

	pools, err := reports.Pools(ctx, "alpha", gamesvc.PlatformXboxOne)
	require.NoError(t, err)
	assert.Equal(t, "pool-1", pools.Pools[0].Name)

	counters, err := reports.Counters(ctx, "alpha", gamesvc.PlatformXboxOne)
	require.NoError(t, err)
	assert.Equal(t, []string{"Players", "Sessions"}, counters)

	data, err := reports.CounterData(ctx, "alpha", gamesvc.PlatformXboxOne, &gamesvc.CounterQuery{
		GeoRegion:    "West US",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Zoom:         5 * time.Minute,
		CounterNames: []string{"Players", "Sessions"},
	})
	require.NoError(t, err)
	require.Len(t, data.Series, 1)
	assert.InDelta(t, 12, data.Series[0].Points[0].Value, 0)
}

func TestReportsClient_CounterData_RequiresNames(t *testing.T) {
	t.Parallel()

	reports := NewReportsClient(newTestHTTPClient(t, "http://127.0.0.1:1"))

	_, err := reports.CounterData(context.Background(), "alpha", gamesvc.PlatformPC, &gamesvc.CounterQuery{})
	require.Error(t, err)
	assert.True(t, gamesvc.IsKind(err, gamesvc.ErrorKindValidation))
}

func TestReportsClient_MissingReport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	defer server.Close()

	reports := NewReportsClient(newTestHTTPClient(t, server.URL))

	counters, err := reports.Counters(context.Background(), "alpha", gamesvc.PlatformPC)
	require.NoError(t, err)
	assert.Empty(t, counters)
}

func TestFormatTimeSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 30 * time.Second, want: "00:00:30"},
		{in: 90 * time.Minute, want: "01:30:00"},
		{in: 26*time.Hour + 1500*time.Millisecond, want: "26:00:02"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTimeSpan(tt.in), tt.in.String())
	}
}

func TestDiagnosticsClient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		query := r.URL.Query()

		switch route(r) {
		case "GET " + gamePassthroughPath + "/diagnostics/logs/inst-1":
			assert.Equal(t, "West US", query.Get("geoRegion"))
			writeJSON(t, w, nethttp.StatusOK, gamesvc.DiagnosticFiles{Files: []string{"host.log"}})
		case "GET " + gamePassthroughPath + "/diagnostics/dumps/inst-1":
			assert.False(t, query.Has("geoRegion"))
			writeJSON(t, w, nethttp.StatusOK, gamesvc.DiagnosticFiles{Files: []string{"crash.dmp"}})
		case "GET " + gamePassthroughPath + "/clusters":
			assert.Equal(t, "Ready", query.Get("status"))
			assert.Equal(t, "agent-9", query.Get("agentId"))
			assert.False(t, query.Has("clusterId"))
			writeJSON(t, w, nethttp.StatusOK, gamesvc.ClusterCollection{
				Clusters: []gamesvc.Cluster{{ID: "c-1", AgentID: "agent-9", Status: "Ready"}},
			})
		default:
			t.Errorf("unexpected request %s", route(r))
			w.WriteHeader(nethttp.StatusInternalServerError)
		}
	}))
	defer server.Close()

	diagnostics := NewDiagnosticsClient(newTestHTTPClient(t, server.URL))
	ctx := context.Background()

	logs, err := diagnostics.LogFiles(ctx, "alpha", gamesvc.PlatformXboxOne, "inst-1", "West US")
	require.NoError(t, err)
	assert.Equal(t, []string{"host.log"}, logs.Files)

	dumps, err := diagnostics.DumpFiles(ctx, "alpha", gamesvc.PlatformXboxOne, "inst-1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"crash.dmp"}, dumps.Files)

	clusters, err := diagnostics.Clusters(ctx, "alpha", gamesvc.PlatformXboxOne, &gamesvc.ClusterQuery{
		Status:  "Ready",
		AgentID: "agent-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", clusters.Clusters[0].ID)

	_, err = diagnostics.LogFiles(ctx, "alpha", gamesvc.PlatformXboxOne, "", "")
	assert.True(t, gamesvc.IsKind(err, gamesvc.ErrorKindValidation))
}

func TestInsightsClient(t *testing.T) {
	t.Parallel()

	insightsItemsPath := containerItemsPath + "/insightsconfigitems"

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch route(r) {
		case "GET " + insightsItemsPath:
			writeJSON(t, w, nethttp.StatusOK, gamesvc.InsightsConfigItems{
				Items: []gamesvc.InsightsConfigItem{{TargetName: "alpha", TargetType: "CloudGame"}},
			})
		case "POST " + insightsItemsPath, "PUT " + insightsItemsPath + "/alpha":
			var item gamesvc.InsightsConfigItem
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&item))
			assert.Equal(t, "alpha", item.TargetName)
			assert.Equal(t, "InstrumentationKey=abc", item.ConnectionString)
			w.WriteHeader(nethttp.StatusOK)
		case "DELETE " + insightsItemsPath + "/alpha":
			w.WriteHeader(nethttp.StatusOK)
		default:
			t.Errorf("unexpected request %s", route(r))
			w.WriteHeader(nethttp.StatusInternalServerError)
		}
	}))
	defer server.Close()

	insights := NewInsightsClient(newTestHTTPClient(t, server.URL))
	ctx := context.Background()

	items, err := insights.List(ctx)
	require.NoError(t, err)
	require.Len(t, items.Items, 1)

	item := &gamesvc.InsightsConfigItem{
		TargetName:       "alpha",
		TargetType:       "CloudGame",
		ConnectionString: "InstrumentationKey=abc",
	}

	ok, err := insights.Create(ctx, item)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = insights.Update(ctx, item)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = insights.Remove(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = insights.Create(ctx, &gamesvc.InsightsConfigItem{})
	assert.True(t, gamesvc.IsKind(err, gamesvc.ErrorKindValidation))
}
