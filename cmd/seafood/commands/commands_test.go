package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafoodpulse/internal/app"
	"seafoodpulse/internal/config"
	"seafoodpulse/internal/dataprocessing"
	"seafoodpulse/internal/operations"
	"seafoodpulse/internal/services"
	"seafoodpulse/pkg/contracts"
	"seafoodpulse/pkg/contracts/domain"
)

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "none"

	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func seed(t *testing.T, a *app.Application) {
	t.Helper()
	records := dataprocessing.EnrichRecords([]domain.MarketRecord{
		{Week: 36, Category: domain.CategorySalmonTrout, Market: "USA", CurrentVolume: 2000, CurrentPrice: 90, PriorVolume: 1000, PriorPrice: 80},
		{Week: 36, Category: domain.CategoryWhitefish, Market: "Portugal", CurrentVolume: 1500, CurrentPrice: 40, PriorVolume: 1500, PriorPrice: 38},
		{Week: 37, Category: domain.CategorySalmonTrout, Market: "Poland", CurrentVolume: 900, CurrentPrice: 85, PriorVolume: 600, PriorPrice: 70},
	})
	require.NoError(t, a.Store.ReplaceMarketRecords(context.Background(), records))
}

func TestCommandTree(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"scrape", "process", "analyze", "fishing", "markets", "serve", "pipeline"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "SeafoodPulse "+contracts.Version)
}

func TestLoadConfigFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o600))

	configFile, logLevel = path, "debug"
	t.Cleanup(func() { configFile, logLevel = "", "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	keepStdout(cfg)
	assert.NotEqual(t, "console", cfg.Logging.Output)
	assert.NotEqual(t, "both", cfg.Logging.Output)

	configFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestPathParam(t *testing.T) {
	params, err := pathParam(operations.ParamInputDir, nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	params, err = pathParam(operations.ParamInputFile, []string{"fishing.csv"})
	require.NoError(t, err)
	got := params[operations.ParamInputFile].(string)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "fishing.csv", filepath.Base(got))
}

func TestProcessParam(t *testing.T) {
	tests := []struct {
		name string
		args []string
		key  string
	}{
		{"no argument", nil, ""},
		{"directory", []string{"downloads"}, operations.ParamInputDir},
		{"https url", []string{"https://stats.example.com/uke-5-hvitfiskprodukter.xlsx"}, operations.ParamInputURL},
		{"upper case scheme", []string{"HTTP://stats.example.com/uke-5-hvitfiskprodukter.xlsx"}, operations.ParamInputURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := processParam(tt.args)
			require.NoError(t, err)
			if tt.key == "" {
				assert.Nil(t, params)
				return
			}
			require.Len(t, params, 1)
			assert.Contains(t, params, tt.key)
			if tt.key == operations.ParamInputURL {
				assert.Equal(t, tt.args[0], params[tt.key], "urls are passed through unchanged")
			}
		})
	}
}

func TestRunStepPrintsOutcome(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	snap, err := runStep(context.Background(), &out, a, operations.StepIDAnalysis, nil)
	require.NoError(t, err)
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, domain.StepStatusSkipped, snap.Steps[0].Status)
	assert.Contains(t, out.String(), operations.StepNameAnalysis)
	assert.Contains(t, out.String(), string(domain.StepStatusSkipped))
}

func TestRunStepUnknownStep(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	_, err := runStep(context.Background(), &out, a, "smoking", nil)
	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRunMarkets(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := runMarkets(ctx, &out, a.DataService, marketsOptions{limit: 5})
	assert.ErrorIs(t, err, services.ErrNoData)

	seed(t, a)

	out.Reset()
	require.NoError(t, runMarkets(ctx, &out, a.DataService, marketsOptions{limit: 5}))
	assert.Contains(t, out.String(), "Top markets")
	assert.Contains(t, out.String(), "USA")
	assert.Contains(t, out.String(), "Fastest growing markets")

	out.Reset()
	require.NoError(t, runMarkets(ctx, &out, a.DataService, marketsOptions{limit: 5, week: 37}))
	assert.Contains(t, out.String(), "Poland")
	assert.NotContains(t, out.String(), "Portugal")

	assert.Error(t, runMarkets(ctx, &out, a.DataService, marketsOptions{limit: 5, week: 36, category: "reker"}))
	assert.Error(t, runMarkets(ctx, &out, a.DataService, marketsOptions{limit: 0}))
}

func TestRenderReport(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	var out bytes.Buffer

	require.NoError(t, renderReport(context.Background(), &out, a))
	assert.Contains(t, out.String(), "Weekly volume")
	assert.Contains(t, out.String(), "Categories")
	assert.Contains(t, out.String(), "Top markets")
}
