package operations

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/dataprocessing"
	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/internal/fishing"
	"seafoodpulse/internal/scraper"
	"seafoodpulse/pkg/contracts/domain"
)

var processingNow = time.Date(2024, 9, 9, 8, 30, 0, 0, time.UTC)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{})
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func runStep(t *testing.T, step Step) (*OperationState, error) {
	t.Helper()
	state := NewOperationState("test")
	state.AddStep(NewStepState(step.ID(), step.Name()))
	return state, step.Execute(context.Background(), state)
}

type fakeDiscoverer struct {
	links []scraper.FileLink
	err   error
}

func (f fakeDiscoverer) Discover(context.Context) ([]scraper.FileLink, error) {
	return f.links, f.err
}

type fakeDownloader struct {
	meta *scraper.DownloadMetadata
	got  []scraper.FileLink
}

func (f *fakeDownloader) Download(_ context.Context, links []scraper.FileLink) (*scraper.DownloadMetadata, error) {
	f.got = links
	return f.meta, nil
}

func TestScrapingStep(t *testing.T) {
	paths := testPaths(t)
	links := []scraper.FileLink{{URL: "http://x/uke-36-laks-og-orret.xlsx", Filename: "uke-36-laks-og-orret.xlsx", Type: scraper.LinkWeekly}}

	meta := scraper.NewDownloadMetadata(processingNow)
	meta.AddFile(scraper.DownloadedFile{Filename: "weekly_uke-36-laks-og-orret.xlsx", Size: 10, Type: scraper.LinkWeekly})
	dl := &fakeDownloader{meta: meta}

	state, err := runStep(t, NewScrapingStep(fakeDiscoverer{links: links}, dl, paths, quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, links, dl.got)
	assert.FileExists(t, paths.DownloadMetadataJSON)
	v, ok := state.GetContext(ContextKeyDownloaded)
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, state.Step(StepIDScraping).Snapshot().Metadata["files_found"])
}

func TestScrapingStepFailures(t *testing.T) {
	paths := testPaths(t)

	_, err := runStep(t, NewScrapingStep(fakeDiscoverer{}, &fakeDownloader{}, paths, nil))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	netErr := apperrors.NewNetworkError("archive down", nil)
	_, err = runStep(t, NewScrapingStep(fakeDiscoverer{err: netErr}, &fakeDownloader{}, paths, nil))
	assert.ErrorIs(t, err, netErr)
	assert.True(t, IsRetryable(err))

	meta := scraper.NewDownloadMetadata(processingNow)
	meta.AddFailure(scraper.FailedDownload{Filename: "a.xlsx", Error: "404"})
	links := []scraper.FileLink{{URL: "http://x/a.xlsx"}}
	_, err = runStep(t, NewScrapingStep(fakeDiscoverer{links: links}, &fakeDownloader{meta: meta}, paths, nil))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork), "all downloads failing is retryable")
}

func writeWeeklyWorkbook(t *testing.T, dir, name string, markets map[string][]any, order ...string) {
	t.Helper()
	rows := [][]any{
		{nil, nil, "Eksport av sjømat"},
		{nil, nil, "Land", "Uke", "Pris"},
		{nil, nil, "TOTALT", 1000, 60},
	}
	for _, m := range order {
		rows = append(rows, append([]any{nil, nil, m}, markets[m]...))
	}

	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, name)))
}

type fakeRecordStore struct {
	records []domain.EnrichedRecord
	err     error
}

func (f *fakeRecordStore) ReplaceMarketRecords(_ context.Context, records []domain.EnrichedRecord) error {
	f.records = records
	return f.err
}

type fakePublisher struct {
	sheet string
	rows  [][]string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, sheet string, _ []string, rows [][]string) error {
	f.sheet, f.rows = sheet, rows
	return f.err
}

func TestProcessingStep(t *testing.T) {
	paths := testPaths(t)
	writeWeeklyWorkbook(t, paths.DownloadsDir, "weekly_uke-36-laks-og-orret.xlsx",
		map[string][]any{
			"USA":   {100, 50, 80, 40, 500, 49, 480, 47},
			"Japan": {20, 70, 0, 0, 40, 71, 0, 0},
		}, "USA", "Japan")

	store := &fakeRecordStore{}
	pub := &fakePublisher{err: errors.New("quota exceeded")}
	step := NewProcessingStep(dataprocessing.NewProcessor(nil, quietLogger(), nil), store, pub, "combined", paths, quietLogger())

	state := NewOperationState("test")
	state.AddStep(NewStepState(step.ID(), step.Name()))
	require.NoError(t, step.Validate(state))
	require.NoError(t, step.Execute(context.Background(), state))

	records, err := exporter.ReadMarketRecords(paths.CombinedDataCSV)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "USA", records[0].Market)

	require.Len(t, store.records, 2)
	assert.Equal(t, 25.0, store.records[0].VolumeGrowthPercent)
	assert.Equal(t, "combined", pub.sheet)
	assert.Len(t, pub.rows, 2)

	assert.FileExists(t, paths.QualityJSON)
	meta := state.Step(StepIDProcessing).Snapshot().Metadata
	assert.Equal(t, 2, meta["records"])
	assert.Equal(t, "quota exceeded", meta["publish_error"])
}

func TestProcessingStepValidate(t *testing.T) {
	paths := testPaths(t)
	step := NewProcessingStep(dataprocessing.NewProcessor(nil, nil, nil), nil, nil, "", paths, nil)
	assert.Error(t, step.Validate(NewOperationState("x")))
}

func TestProcessingStepInputDir(t *testing.T) {
	paths := testPaths(t)
	dir := t.TempDir()
	writeWeeklyWorkbook(t, dir, "uke-3-hvitfiskprodukter.xlsx",
		map[string][]any{"Portugal": {300, 40}}, "Portugal")
	step := NewProcessingStep(dataprocessing.NewProcessor(nil, nil, nil), nil, nil, "", paths, nil)

	require.Len(t, step.Parameters(), 1)
	assert.Equal(t, paths.DownloadsDir, step.Parameters()[0].Default)

	state := NewOperationState("x")
	state.AddStep(NewStepState(step.ID(), step.Name()))
	assert.Error(t, step.Validate(state), "downloads dir is empty")

	state.Parameters[ParamInputDir] = dir
	require.NoError(t, step.Validate(state))
	require.NoError(t, step.Execute(context.Background(), state))
	assert.Equal(t, 1, state.Step(StepIDProcessing).Snapshot().Metadata["records"])
}

func TestProcessingStepStoreError(t *testing.T) {
	paths := testPaths(t)
	writeWeeklyWorkbook(t, paths.DownloadsDir, "uke-2-hvitfiskprodukter.xlsx",
		map[string][]any{"Portugal": {300, 40}}, "Portugal")

	storeErr := apperrors.NewStorageError("disk full", nil)
	step := NewProcessingStep(dataprocessing.NewProcessor(nil, nil, nil), &fakeRecordStore{err: storeErr}, nil, "", paths, nil)
	_, err := runStep(t, step)
	assert.ErrorIs(t, err, storeErr)
}

func TestProcessingStepValidateOutputDir(t *testing.T) {
	paths := testPaths(t)
	writeWeeklyWorkbook(t, paths.DownloadsDir, "uke-2-hvitfiskprodukter.xlsx",
		map[string][]any{"Portugal": {300, 40}}, "Portugal")

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	paths.CombinedDataCSV = filepath.Join(blocker, "combined.csv")

	step := NewProcessingStep(dataprocessing.NewProcessor(nil, nil, nil), nil, nil, "", paths, nil)
	assert.Error(t, step.Validate(NewOperationState("x")))
}

type fakeFetcher struct {
	body []byte
	err  error
	got  string
}

func (f *fakeFetcher) Download(_ context.Context, url string, w io.Writer) (int64, error) {
	f.got = url
	if f.err != nil {
		return 0, f.err
	}
	n, err := w.Write(f.body)
	return int64(n), err
}

func workbookBytes(t *testing.T, markets map[string][]any, order ...string) []byte {
	t.Helper()
	dir := t.TempDir()
	writeWeeklyWorkbook(t, dir, "book.xlsx", markets, order...)
	data, err := os.ReadFile(filepath.Join(dir, "book.xlsx"))
	require.NoError(t, err)
	return data
}

func TestProcessingStepInputURL(t *testing.T) {
	paths := testPaths(t)
	fetcher := &fakeFetcher{body: workbookBytes(t, map[string][]any{"Portugal": {300, 40}}, "Portugal")}
	step := NewProcessingStep(dataprocessing.NewProcessor(nil, quietLogger(), nil), nil, nil, "", paths, quietLogger()).
		WithFetcher(fetcher)

	require.Len(t, step.Parameters(), 2)
	assert.Equal(t, ParamInputURL, step.Parameters()[1].Name)

	const link = "https://stats.example.com/files/uke-5-hvitfiskprodukter.xlsx"
	state := NewOperationState("x")
	state.AddStep(NewStepState(step.ID(), step.Name()))
	state.Parameters[ParamInputURL] = link

	require.NoError(t, step.Validate(state), "empty downloads dir is not consulted")
	require.NoError(t, step.Execute(context.Background(), state))
	assert.Equal(t, link, fetcher.got)

	records, err := exporter.ReadMarketRecords(paths.CombinedDataCSV)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 5, records[0].Week)
	assert.Equal(t, domain.CategoryWhitefish, records[0].Category)
	assert.Equal(t, 300.0, records[0].CurrentVolume)
}

func TestProcessingStepInputURLRejected(t *testing.T) {
	paths := testPaths(t)
	body := workbookBytes(t, map[string][]any{"Portugal": {300, 40}}, "Portugal")

	tests := []struct {
		name        string
		fetcher     *fakeFetcher
		link        string
		validateErr bool
		check       func(t *testing.T, err error)
	}{
		{
			name:        "no fetcher configured",
			link:        "https://x/uke-5-hvitfiskprodukter.xlsx",
			validateErr: true,
		},
		{
			name:        "unsupported scheme",
			fetcher:     &fakeFetcher{body: body},
			link:        "ftp://x/uke-5-hvitfiskprodukter.xlsx",
			validateErr: true,
		},
		{
			name:    "name without tags",
			fetcher: &fakeFetcher{body: body},
			link:    "https://x/report.xlsx",
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			},
		},
		{
			name:    "download failure is retryable",
			fetcher: &fakeFetcher{err: apperrors.NewNetworkError("status 503", nil)},
			link:    "https://x/uke-5-hvitfiskprodukter.xlsx",
			check: func(t *testing.T, err error) {
				assert.True(t, IsRetryable(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := NewProcessingStep(dataprocessing.NewProcessor(nil, nil, nil), nil, nil, "", paths, nil)
			if tt.fetcher != nil {
				step.WithFetcher(tt.fetcher)
			}
			state := NewOperationState("x")
			state.AddStep(NewStepState(step.ID(), step.Name()))
			state.Parameters[ParamInputURL] = tt.link

			if tt.validateErr {
				assert.Error(t, step.Validate(state))
				return
			}
			require.NoError(t, step.Validate(state))
			err := step.Execute(context.Background(), state)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAnalysisStep(t *testing.T) {
	paths := testPaths(t)
	records := dataprocessing.EnrichRecords([]domain.MarketRecord{
		{Week: 1, Category: domain.CategoryWhitefish, Market: "Portugal", CurrentVolume: 3000, CurrentPrice: 40, PriorVolume: 2000, PriorPrice: 38},
		{Week: 2, Category: domain.CategoryWhitefish, Market: "Portugal", CurrentVolume: 2500, CurrentPrice: 42, PriorVolume: 2500, PriorPrice: 40},
	})
	require.NoError(t, exporter.NewCSVWriter(paths).WriteMarketRecords(paths.CombinedDataCSV, records))

	step := NewAnalysisStep(dataprocessing.NewSummarizer(quietLogger(), dataprocessing.SummarizerConfig{}), paths, quietLogger())
	step.now = func() time.Time { return processingNow }

	state := NewOperationState("test")
	require.NoError(t, step.Validate(state))
	state.AddStep(NewStepState(step.ID(), step.Name()))
	require.NoError(t, step.Execute(context.Background(), state))

	var report domain.AnalysisReport
	require.NoError(t, exporter.ReadJSON(paths.AnalysisJSON, &report))
	require.Len(t, report.WeeklyTotals, 2)
	assert.Equal(t, 5500.0, report.Insights.TotalVolume)

	insights := paths.GetInsightsPath(processingNow)
	assert.FileExists(t, insights)
	v, _ := state.GetContext(ContextKeyInsightsFile)
	assert.Equal(t, insights, v)
}

func TestAnalysisStepReadsProcessedCSV(t *testing.T) {
	paths := testPaths(t)
	other := filepath.Join(t.TempDir(), "elsewhere.csv")
	records := dataprocessing.EnrichRecords([]domain.MarketRecord{
		{Week: 7, Category: domain.CategoryWhitefish, Market: "Spain", CurrentVolume: 100, CurrentPrice: 30},
	})
	require.NoError(t, exporter.NewCSVWriter(paths).WriteMarketRecords(other, records))

	step := NewAnalysisStep(dataprocessing.NewSummarizer(quietLogger(), dataprocessing.SummarizerConfig{}), paths, quietLogger())
	step.now = func() time.Time { return processingNow }

	state := NewOperationState("test")
	state.AddStep(NewStepState(StepIDProcessing, StepNameProcessing))
	state.AddStep(NewStepState(step.ID(), step.Name()))
	state.SetContext(ContextKeyCombinedCSV, other)

	require.NoError(t, step.Validate(state))
	require.NoError(t, step.Execute(context.Background(), state))
	assert.Equal(t, 1, state.Step(StepIDAnalysis).Snapshot().Metadata["records"])
}

func TestAnalysisStepValidate(t *testing.T) {
	paths := testPaths(t)
	step := NewAnalysisStep(dataprocessing.NewSummarizer(nil, dataprocessing.SummarizerConfig{}), paths, nil)

	alone := NewOperationState("x")
	assert.Error(t, step.Validate(alone), "no combined dataset yet")

	withProcessing := NewOperationState("y")
	withProcessing.AddStep(NewStepState(StepIDProcessing, StepNameProcessing))
	assert.NoError(t, step.Validate(withProcessing))
}

type fakeFishing struct {
	result *fishing.Result
	err    error
}

func (f fakeFishing) ProcessLatest(context.Context) (*fishing.Result, error) {
	return f.result, f.err
}

func (f fakeFishing) ProcessFile(_ context.Context, path string) (*fishing.Result, error) {
	if f.result == nil {
		return nil, f.err
	}
	r := *f.result
	r.InputFile = path
	return &r, f.err
}

func TestFishingStep(t *testing.T) {
	paths := testPaths(t)
	result := &fishing.Result{InputFile: "events.json", Ports: make([]domain.PortSummary, 2)}
	result.Report.TotalEventsProcessed = 5
	result.Report.PortVisitsProcessed = 4

	step := NewFishingStep(fakeFishing{result: result}, paths, nil)
	assert.True(t, step.Optional())
	assert.Error(t, step.Validate(NewOperationState("x")), "no export present")

	require.NoError(t, os.WriteFile(filepath.Join(paths.FishingDir, "events.json"), []byte("[]"), 0644))
	assert.NoError(t, step.Validate(NewOperationState("x")))

	state, err := runStep(t, step)
	require.NoError(t, err)
	meta := state.Step(StepIDFishing).Snapshot().Metadata
	assert.Equal(t, 5, meta["events"])
	assert.Equal(t, 2, meta["ports"])
	assert.Equal(t, "events.json", meta["input_file"])
}

func TestFishingStepInputFile(t *testing.T) {
	paths := testPaths(t)
	step := NewFishingStep(fakeFishing{result: &fishing.Result{}}, paths, nil)
	file := filepath.Join(t.TempDir(), "export.csv")

	state := NewOperationState("x")
	state.AddStep(NewStepState(step.ID(), step.Name()))
	state.Parameters[ParamInputFile] = file
	assert.Error(t, step.Validate(state), "file does not exist yet")

	require.NoError(t, os.WriteFile(file, []byte("header\n"), 0644))
	require.NoError(t, step.Validate(state))
	require.NoError(t, step.Execute(context.Background(), state))
	assert.Equal(t, file, state.Step(StepIDFishing).Snapshot().Metadata["input_file"])
}

func TestPipelineSkipsFishingWithoutInput(t *testing.T) {
	paths := testPaths(t)
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFishingStep(fakeFishing{}, paths, nil)))
	m := NewManager(nil, reg, fastConfig(), quietLogger(), nil)

	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
	assert.Equal(t, domain.StepStatusSkipped, snap.Steps[0].Status)
	assert.Contains(t, snap.Steps[0].Message, "no fishing events export")
}
