package fishing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/pkg/contracts/domain"
)

// Output file names written to the fishing reports directory
const (
	EventsFile      = "processed_fishing_events.csv"
	PortVisitsFile  = "port_visit_analysis.csv"
	PortSummaryFile = "port_summary_stats.csv"
	CountryFile     = "country_summary_stats.csv"
	ReportFile      = "processing_report.json"
	QualityFile     = "data_quality_report.json"
)

// PortSummaryStore persists port summaries
type PortSummaryStore interface {
	SavePortSummaries(ctx context.Context, ports []domain.PortSummary) error
}

// Result is everything produced by one processing run
type Result struct {
	InputFile string                      `json:"input_file"`
	Report    domain.ProcessingReport     `json:"report"`
	Quality   []domain.EventQualityReport `json:"quality"`
	Countries []domain.CountrySummary     `json:"countries"`
	Ports     []domain.PortSummary        `json:"ports"`
	Outputs   []string                    `json:"outputs"`
}

// Processor turns a fishing events export into port visit reports
type Processor struct {
	paths  *config.Paths
	csv    *exporter.CSVWriter
	json   *exporter.JSONWriter
	store  PortSummaryStore
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor creates a processor writing under paths. store may be nil.
func NewProcessor(paths *config.Paths, store PortSummaryStore, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		paths:  paths,
		csv:    exporter.NewCSVWriter(paths),
		json:   exporter.NewJSONWriter(),
		store:  store,
		logger: logger.With(slog.String("component", "fishing")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProcessLatest processes the newest export in the fishing input directory
func (p *Processor) ProcessLatest(ctx context.Context) (*Result, error) {
	path, err := LatestFile(p.paths.FishingDir)
	if err != nil {
		return nil, err
	}
	return p.ProcessFile(ctx, path)
}

// ProcessFile processes one events export and writes every report
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	events, err := Load(path)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "loaded fishing events",
		slog.String("file", filepath.Base(path)),
		slog.Int("events", len(events)))

	result, err := p.Process(ctx, events)
	if err != nil {
		return nil, err
	}
	result.InputFile = path

	p.logger.InfoContext(ctx, "fishing events processed",
		slog.Int("events", result.Report.TotalEventsProcessed),
		slog.Int("port_visits", result.Report.PortVisitsProcessed),
		slog.Int("ports", len(result.Ports)),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Process runs the full analysis over decoded events
func (p *Processor) Process(ctx context.Context, events []domain.FishingEvent) (*Result, error) {
	now := p.now()
	processingDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	flat := Flatten(events, processingDate)
	visits := PortVisits(flat)
	analysis := PreparePortAnalysis(visits)

	result := &Result{
		Report:    BuildProcessingReport(flat, analysis, now),
		Quality:   []domain.EventQualityReport{QualityReport("All Events", flat), QualityReport("Port Visits", visits)},
		Countries: CountrySummaries(analysis),
		Ports:     PortSummaries(analysis, processingDate),
	}

	for _, q := range result.Quality {
		if q.TotalRecords == 0 {
			p.logger.WarnContext(ctx, "no records for quality report", slog.String("name", q.Name))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	writes := []struct {
		name  string
		write func(string) error
	}{
		{EventsFile, func(f string) error { return p.csv.WriteFlatEvents(f, flat) }},
		{PortVisitsFile, func(f string) error { return p.csv.WritePortVisits(f, analysis) }},
		{PortSummaryFile, func(f string) error { return p.csv.WritePortSummaries(f, result.Ports) }},
		{CountryFile, func(f string) error { return p.csv.WriteCountrySummaries(f, result.Countries) }},
		{ReportFile, func(f string) error { return p.json.Write(f, result.Report) }},
		{QualityFile, func(f string) error { return p.json.Write(f, result.Quality) }},
	}
	for _, w := range writes {
		target := p.paths.GetFishingReportPath(w.name)
		if err := w.write(target); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", w.name, err)
		}
		result.Outputs = append(result.Outputs, target)
	}

	if p.store != nil {
		if err := p.store.SavePortSummaries(ctx, result.Ports); err != nil {
			return nil, fmt.Errorf("failed to store port summaries: %w", err)
		}
	}
	return result, nil
}
