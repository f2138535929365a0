package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/files"
	"seafoodpulse/internal/infrastructure"
	"seafoodpulse/internal/validation"
	"seafoodpulse/pkg/contracts/domain"
)

// FileStat reports the outcome of one processed workbook
type FileStat struct {
	Name     string          `json:"name"`
	Week     int             `json:"week"`
	Category domain.Category `json:"category"`
	Records  int             `json:"records"`
}

// SkippedFile is a workbook that produced no records and why
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ProcessResult is the combined output of a processing run
type ProcessResult struct {
	Records []domain.MarketRecord `json:"-"`
	Files   []FileStat            `json:"files"`
	Skipped []SkippedFile         `json:"skipped,omitempty"`
}

// Processor reads weekly workbooks and extracts their market records
type Processor struct {
	reader  *ExcelReader
	files   *validation.FileValidator
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewProcessor creates a processor. metrics may be nil.
func NewProcessor(reader *ExcelReader, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Processor {
	if reader == nil {
		reader = NewExcelReader("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		reader:  reader,
		files:   validation.NewFileValidator(logger),
		logger:  logger.With(slog.String("component", "processor")),
		metrics: metrics,
	}
}

type taggedFile struct {
	path string
	name string
	tags FileTags
}

// ProcessDirectory extracts every tagged workbook in dir. Files are handled
// in (category, week, name) order so the combined output is deterministic.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*ProcessResult, error) {
	workbooks, err := files.NewDiscovery("").FindWorkbooks(dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(workbooks))
	for i, wb := range workbooks {
		paths[i] = wb.Path
	}
	return p.ProcessFiles(ctx, paths)
}

// ProcessFiles extracts the given workbooks. Files without week and
// category tags, files that are not readable .xlsx workbooks and files that
// vanished before reading are reported as skipped.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) (*ProcessResult, error) {
	result := &ProcessResult{Records: []domain.MarketRecord{}}

	var tagged []taggedFile
	for _, path := range paths {
		name := filepath.Base(path)
		tags, ok := ParseFileTags(name)
		if !ok {
			p.logger.WarnContext(ctx, "skipping file without week/category tags", slog.String("file", name))
			result.Skipped = append(result.Skipped, SkippedFile{Name: name, Reason: "no week or category in file name"})
			continue
		}
		if err := p.files.ValidateWorkbook(path); err != nil {
			p.logger.WarnContext(ctx, "skipping unusable workbook", slog.String("file", name), slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, SkippedFile{Name: name, Reason: err.Error()})
			continue
		}
		tagged = append(tagged, taggedFile{path: path, name: name, tags: tags})
	}

	sort.SliceStable(tagged, func(i, j int) bool {
		a, b := tagged[i], tagged[j]
		if a.tags.Category != b.tags.Category {
			return a.tags.Category < b.tags.Category
		}
		if a.tags.Week != b.tags.Week {
			return a.tags.Week < b.tags.Week
		}
		return a.name < b.name
	})

	for _, tf := range tagged {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		read, err := p.reader.Read(tf.path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", tf.name, err)
		}
		if !read.Found {
			p.logger.WarnContext(ctx, "workbook disappeared before reading", slog.String("file", tf.name))
			result.Skipped = append(result.Skipped, SkippedFile{Name: tf.name, Reason: "file not found"})
			continue
		}

		records := ExtractMarketRecords(read.Grid, tf.tags.Week, tf.tags.Category)
		p.record(ctx, tf.name, tf.tags, len(records))
		if len(records) == 0 {
			p.logger.WarnContext(ctx, "workbook has no market rows",
				slog.String("file", tf.name),
				slog.Int("rows", len(read.Grid)))
		}

		result.Records = append(result.Records, records...)
		result.Files = append(result.Files, FileStat{
			Name:     tf.name,
			Week:     tf.tags.Week,
			Category: tf.tags.Category,
			Records:  len(records),
		})
	}

	p.logger.InfoContext(ctx, "processing complete",
		slog.Int("files", len(result.Files)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("records", len(result.Records)))

	return result, nil
}

// ProcessBytes extracts records from an in-memory workbook, such as one
// fetched from a URL. name must carry the week and category tags.
func (p *Processor) ProcessBytes(ctx context.Context, name string, data []byte) (*ProcessResult, error) {
	tags, ok := ParseFileTags(name)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("no week or category in %q", name))
	}

	read, err := p.reader.ReadBytes(data)
	if err != nil {
		return nil, err
	}

	records := ExtractMarketRecords(read.Grid, tags.Week, tags.Category)
	p.record(ctx, name, tags, len(records))
	return &ProcessResult{
		Records: records,
		Files:   []FileStat{{Name: name, Week: tags.Week, Category: tags.Category, Records: len(records)}},
	}, nil
}

func (p *Processor) record(ctx context.Context, name string, tags FileTags, n int) {
	p.logger.DebugContext(ctx, "extracted workbook",
		slog.String("file", name),
		slog.Int("week", tags.Week),
		slog.String("category", string(tags.Category)),
		slog.Int("records", n))
	infrastructure.RecordExtraction(ctx, p.metrics, string(tags.Category), n)
}
