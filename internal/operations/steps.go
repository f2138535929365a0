package operations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/dataprocessing"
	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/internal/fishing"
	"seafoodpulse/internal/scraper"
	"seafoodpulse/internal/validation"
	"seafoodpulse/pkg/contracts/domain"
)

// LinkDiscoverer finds downloadable statistics files
type LinkDiscoverer interface {
	Discover(ctx context.Context) ([]scraper.FileLink, error)
}

// FileDownloader fetches discovered files
type FileDownloader interface {
	Download(ctx context.Context, links []scraper.FileLink) (*scraper.DownloadMetadata, error)
}

// WorkbookFetcher downloads a single remote workbook
type WorkbookFetcher interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// RecordStore persists the combined market table
type RecordStore interface {
	ReplaceMarketRecords(ctx context.Context, records []domain.EnrichedRecord) error
}

// TablePublisher mirrors the combined table somewhere external
type TablePublisher interface {
	Publish(ctx context.Context, sheetName string, header []string, rows [][]string) error
}

// FishingProcessor processes fishing events exports
type FishingProcessor interface {
	ProcessLatest(ctx context.Context) (*fishing.Result, error)
	ProcessFile(ctx context.Context, path string) (*fishing.Result, error)
}

// ScrapingStep discovers statistics files and downloads them
type ScrapingStep struct {
	BaseStep
	discoverer LinkDiscoverer
	downloader FileDownloader
	paths      *config.Paths
	logger     *slog.Logger
}

// NewScrapingStep creates the scraping step
func NewScrapingStep(discoverer LinkDiscoverer, downloader FileDownloader, paths *config.Paths, logger *slog.Logger) *ScrapingStep {
	return &ScrapingStep{
		BaseStep:   NewBaseStep(StepIDScraping, StepNameScraping, "Discover and download weekly seafood statistics"),
		discoverer: discoverer,
		downloader: downloader,
		paths:      paths,
		logger:     stepLogger(logger, StepIDScraping),
	}
}

func (s *ScrapingStep) Execute(ctx context.Context, state *OperationState) error {
	state.ReportProgress(s.ID(), 5, "discovering statistics files")
	links, err := s.discoverer.Discover(ctx)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return apperrors.NewNotFoundError("statistics files")
	}
	state.ReportProgress(s.ID(), 20, fmt.Sprintf("downloading %d files", len(links)))

	meta, err := s.downloader.Download(ctx, links)
	if err != nil {
		return err
	}
	if err := meta.Save(s.paths.DownloadMetadataJSON); err != nil {
		return err
	}

	st := state.Step(s.ID())
	st.SetMetadata("files_found", len(links))
	st.SetMetadata("downloaded", meta.TotalFiles)
	st.SetMetadata("failed", len(meta.FailedDownloads))
	st.SetMetadata("unchanged", len(meta.Unchanged))
	state.SetContext(ContextKeyDownloaded, meta.TotalFiles)

	if meta.TotalFiles == 0 && len(meta.Unchanged) == 0 {
		return apperrors.NewNetworkError(fmt.Sprintf("all %d downloads failed", len(meta.FailedDownloads)), nil)
	}

	s.logger.InfoContext(ctx, "scraping finished",
		slog.Int("downloaded", meta.TotalFiles),
		slog.Int("unchanged", len(meta.Unchanged)),
		slog.Int("failed", len(meta.FailedDownloads)),
		slog.Int64("bytes", meta.TotalSizeBytes))
	return nil
}

// ProcessingStep extracts the market tables and writes the combined outputs
type ProcessingStep struct {
	BaseStep
	processor *dataprocessing.Processor
	validator *validation.RecordValidator
	files     *validation.FileValidator
	fetcher   WorkbookFetcher
	store     RecordStore
	publisher TablePublisher
	sheetName string
	paths     *config.Paths
	logger    *slog.Logger
}

// NewProcessingStep creates the processing step. store and publisher may be nil.
func NewProcessingStep(processor *dataprocessing.Processor, store RecordStore, publisher TablePublisher, sheetName string, paths *config.Paths, logger *slog.Logger) *ProcessingStep {
	return &ProcessingStep{
		BaseStep:  NewBaseStep(StepIDProcessing, StepNameProcessing, "Extract market tables into the combined dataset", StepIDScraping),
		processor: processor,
		validator: validation.NewRecordValidator(),
		files:     validation.NewFileValidator(logger),
		store:     store,
		publisher: publisher,
		sheetName: sheetName,
		paths:     paths,
		logger:    stepLogger(logger, StepIDProcessing),
	}
}

// WithFetcher enables the input_url parameter
func (s *ProcessingStep) WithFetcher(f WorkbookFetcher) *ProcessingStep {
	s.fetcher = f
	return s
}

// Parameters documents the optional input overrides
func (s *ProcessingStep) Parameters() []ParameterDefinition {
	params := []ParameterDefinition{{
		Name:        ParamInputDir,
		Type:        "string",
		Description: "Directory of weekly workbooks to read",
		Default:     s.paths.DownloadsDir,
	}}
	if s.fetcher != nil {
		params = append(params, ParameterDefinition{
			Name:        ParamInputURL,
			Type:        "string",
			Description: "URL of a single workbook to read instead of the directory",
		})
	}
	return params
}

func (s *ProcessingStep) inputDir(state *OperationState) string {
	if dir := state.Parameter(ParamInputDir); dir != "" {
		return dir
	}
	return s.paths.DownloadsDir
}

// Validate skips processing when there are no workbooks to read
func (s *ProcessingStep) Validate(state *OperationState) error {
	if err := s.files.ValidateOutputDirectory(filepath.Dir(s.paths.CombinedDataCSV)); err != nil {
		return err
	}
	if raw := state.Parameter(ParamInputURL); raw != "" {
		_, err := s.workbookURL(raw)
		return err
	}

	dir := s.inputDir(state)
	n, err := s.files.ValidateInputDirectory(dir, "*.xlsx")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no workbooks in %s", dir)
	}
	return nil
}

func (s *ProcessingStep) workbookURL(raw string) (*url.URL, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("remote workbooks are not supported")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid workbook url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("workbook url %q must be http or https", raw)
	}
	return u, nil
}

// fetch downloads one workbook and processes it from memory. The file name
// taken from the URL path carries the week and category.
func (s *ProcessingStep) fetch(ctx context.Context, raw string) (*dataprocessing.ProcessResult, error) {
	u, err := s.workbookURL(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var buf bytes.Buffer
	n, err := s.fetcher.Download(ctx, u.String(), &buf)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "workbook fetched",
		slog.String("url", u.Redacted()),
		slog.Int64("bytes", n))

	return s.processor.ProcessBytes(ctx, path.Base(u.Path), buf.Bytes())
}

func (s *ProcessingStep) Execute(ctx context.Context, state *OperationState) error {
	var (
		result *dataprocessing.ProcessResult
		err    error
	)
	if raw := state.Parameter(ParamInputURL); raw != "" {
		state.ReportProgress(s.ID(), 5, "fetching workbook")
		result, err = s.fetch(ctx, raw)
	} else {
		state.ReportProgress(s.ID(), 5, "reading workbooks")
		result, err = s.processor.ProcessDirectory(ctx, s.inputDir(state))
	}
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return apperrors.NewParsingError(fmt.Sprintf("no market records in %d workbooks", len(result.Files)+len(result.Skipped)), nil)
	}

	st := state.Step(s.ID())
	st.SetMetadata("files", len(result.Files))
	st.SetMetadata("skipped_files", len(result.Skipped))
	st.SetMetadata("records", len(result.Records))

	if issues := s.validator.Validate(result.Records); len(issues) > 0 {
		st.SetMetadata("invalid_records", len(issues))
		for _, issue := range issues {
			s.logger.WarnContext(ctx, "invalid market record", slog.String("issue", issue.String()))
		}
	}

	state.ReportProgress(s.ID(), 50, "writing combined dataset")
	enriched := dataprocessing.EnrichRecords(result.Records)
	csv := exporter.NewCSVWriter(s.paths)
	if err := csv.WriteMarketRecords(s.paths.CombinedDataCSV, enriched); err != nil {
		return err
	}

	quality := dataprocessing.CheckQuality(result.Records)
	if err := exporter.NewJSONWriter().Write(s.paths.QualityJSON, quality); err != nil {
		return err
	}
	st.SetMetadata("duplicate_records", quality.DuplicateRecords)
	if quality.TotalRowsAsMarkets > 0 {
		s.logger.WarnContext(ctx, "padded total rows kept as market records",
			slog.Int("count", quality.TotalRowsAsMarkets))
	}

	if s.store != nil {
		state.ReportProgress(s.ID(), 70, "storing records")
		if err := s.store.ReplaceMarketRecords(ctx, enriched); err != nil {
			return err
		}
	}

	if s.publisher != nil {
		state.ReportProgress(s.ID(), 85, "publishing sheet")
		if err := s.publisher.Publish(ctx, s.sheetName, exporter.MarketHeaders, exporter.MarketRecordRows(enriched)); err != nil {
			// The local outputs are already written; a failed mirror is not fatal.
			s.logger.WarnContext(ctx, "sheet publish failed", slog.String("error", err.Error()))
			st.SetMetadata("publish_error", err.Error())
		}
	}

	state.SetContext(ContextKeyRecordCount, len(result.Records))
	state.SetContext(ContextKeyCombinedCSV, s.paths.CombinedDataCSV)

	s.logger.InfoContext(ctx, "processing finished",
		slog.Int("records", len(result.Records)),
		slog.Int("files", len(result.Files)),
		slog.Int("skipped", len(result.Skipped)))
	return nil
}

// AnalysisStep summarizes the combined dataset
type AnalysisStep struct {
	BaseStep
	summarizer *dataprocessing.Summarizer
	paths      *config.Paths
	logger     *slog.Logger
	now        func() time.Time
}

// NewAnalysisStep creates the analysis step
func NewAnalysisStep(summarizer *dataprocessing.Summarizer, paths *config.Paths, logger *slog.Logger) *AnalysisStep {
	return &AnalysisStep{
		BaseStep:   NewBaseStep(StepIDAnalysis, StepNameAnalysis, "Compute market summaries and insights", StepIDProcessing),
		summarizer: summarizer,
		paths:      paths,
		logger:     stepLogger(logger, StepIDAnalysis),
		now:        time.Now,
	}
}

// Validate requires a combined dataset unless processing runs first
func (s *AnalysisStep) Validate(state *OperationState) error {
	if state.Step(StepIDProcessing) != nil {
		return nil
	}
	return validation.NewFileValidator(s.logger).ValidateFile(s.paths.CombinedDataCSV)
}

func (s *AnalysisStep) Execute(ctx context.Context, state *OperationState) error {
	state.ReportProgress(s.ID(), 10, "loading combined dataset")
	input := s.paths.CombinedDataCSV
	if v, ok := state.GetContext(ContextKeyCombinedCSV); ok {
		if p, ok := v.(string); ok && p != "" {
			input = p
		}
	}
	records, err := exporter.ReadMarketRecords(input)
	if err != nil {
		return err
	}

	now := s.now()
	report := s.summarizer.Analyze(ctx, records, now)

	state.ReportProgress(s.ID(), 70, "writing reports")
	jw := exporter.NewJSONWriter()
	if err := jw.Write(s.paths.AnalysisJSON, report); err != nil {
		return err
	}
	insightsPath := s.paths.GetInsightsPath(now)
	if err := jw.Write(insightsPath, report.Insights); err != nil {
		return err
	}

	st := state.Step(s.ID())
	st.SetMetadata("records", len(records))
	st.SetMetadata("weeks", len(report.WeeklyTotals))
	st.SetMetadata("insights_file", insightsPath)
	state.SetContext(ContextKeyInsightsFile, insightsPath)

	s.logger.InfoContext(ctx, "analysis finished",
		slog.Int("records", len(records)),
		slog.String("insights", insightsPath))
	return nil
}

// FishingStep processes the newest fishing events export. It has no
// dependencies and is skipped when there is no export to read.
type FishingStep struct {
	BaseStep
	processor FishingProcessor
	paths     *config.Paths
	logger    *slog.Logger
}

// NewFishingStep creates the fishing step
func NewFishingStep(processor FishingProcessor, paths *config.Paths, logger *slog.Logger) *FishingStep {
	return &FishingStep{
		BaseStep:  NewBaseStep(StepIDFishing, StepNameFishing, "Analyze port visits from fishing events"),
		processor: processor,
		paths:     paths,
		logger:    stepLogger(logger, StepIDFishing),
	}
}

// Optional marks the step as optional for API clients
func (s *FishingStep) Optional() bool { return true }

// Parameters documents the optional export file override
func (s *FishingStep) Parameters() []ParameterDefinition {
	return []ParameterDefinition{{
		Name:        ParamInputFile,
		Type:        "string",
		Description: "Fishing events CSV to analyze instead of the newest export",
	}}
}

// Validate skips the step when no export is present
func (s *FishingStep) Validate(state *OperationState) error {
	if err := validation.NewFileValidator(s.logger).ValidateOutputDirectory(s.paths.FishingReportsDir); err != nil {
		return err
	}
	if file := state.Parameter(ParamInputFile); file != "" {
		return validation.NewFileValidator(s.logger).ValidateFile(file)
	}
	if _, err := fishing.LatestFile(s.paths.FishingDir); err != nil {
		return fmt.Errorf("no fishing events export: %w", err)
	}
	return nil
}

func (s *FishingStep) Execute(ctx context.Context, state *OperationState) error {
	state.ReportProgress(s.ID(), 10, "processing fishing events")
	var (
		result *fishing.Result
		err    error
	)
	if file := state.Parameter(ParamInputFile); file != "" {
		result, err = s.processor.ProcessFile(ctx, file)
	} else {
		result, err = s.processor.ProcessLatest(ctx)
	}
	if err != nil {
		return err
	}

	st := state.Step(s.ID())
	st.SetMetadata("input_file", result.InputFile)
	st.SetMetadata("events", result.Report.TotalEventsProcessed)
	st.SetMetadata("port_visits", result.Report.PortVisitsProcessed)
	st.SetMetadata("ports", len(result.Ports))
	return nil
}

func stepLogger(logger *slog.Logger, stepID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", "step"), slog.String("step", stepID))
}
