package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/dataprocessing"
	"seafoodpulse/internal/operations"
	"seafoodpulse/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TraceExporter = "none"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestNewWiresPipeline(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	assert.Equal(t, []string{
		operations.StepIDScraping,
		operations.StepIDProcessing,
		operations.StepIDAnalysis,
		operations.StepIDFishing,
	}, a.Manager.Registry().IDs())
	assert.DirExists(t, a.Paths.DownloadsDir)
	assert.FileExists(t, a.Paths.DatabaseFile)
	assert.NoError(t, a.Store.Ping(context.Background()))
}

func TestRouter(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	h := a.Router

	rec, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
	assert.Contains(t, body, "websocket", "hub counters are reported")

	rec, _ = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec, body = get(t, h, "/api/data/weeks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])

	rec, body = get(t, h, "/api/data/summary/weekly")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_DATA", body["error_code"])

	rec, body = get(t, h, "/api/operations/types")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), body["count"])

	rec, body = get(t, h, "/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/errors/not-found", body["type"])
}

func TestRouterMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricExporter = "none"
	a := newTestApp(t, cfg)

	rec, _ := get(t, a.Router, "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExecuteAnalysisWithoutDataIsSkipped(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	snap, err := a.Execute(context.Background(), operations.OperationRequest{
		Parameters: map[string]any{operations.ParamStep: operations.StepIDAnalysis},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, domain.StepStatusSkipped, snap.Steps[0].Status)
}

func TestDataEndpointsAfterLoad(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	records := dataprocessing.EnrichRecords([]domain.MarketRecord{
		{Week: 36, Category: domain.CategorySalmonTrout, Market: "USA", CurrentVolume: 2000, CurrentPrice: 90, PriorVolume: 1000, PriorPrice: 80},
	})
	require.NoError(t, a.Store.ReplaceMarketRecords(context.Background(), records))

	rec, body := get(t, a.Router, "/api/data/records?week=36")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = get(t, a.Router, "/api/data/insights")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2000.0, body["total_volume"])
}

func TestStopIsIdempotentWithoutServer(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	assert.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, a.Close(context.Background()))
}
