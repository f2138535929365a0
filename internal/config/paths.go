package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	BaseDir      string
	DataDir      string
	DownloadsDir string
	ReportsDir   string
	CacheDir     string
	LogsDir      string
	FishingDir   string

	// Report subdirectories
	CombinedReportsDir string
	SummaryReportsDir  string
	FishingReportsDir  string

	// Config files
	CredentialsFile string

	// Well-known files
	CombinedDataCSV      string
	AnalysisJSON         string
	QualityJSON          string
	DownloadMetadataJSON string
	DatabaseFile         string
}

// GetPaths returns the default layout rooted at SEAFOOD_HOME, or at the
// executable directory when it is unset.
func GetPaths() (*Paths, error) {
	base, err := executableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(base, Default().Paths), nil
}

// NewPaths builds the layout under base. Relative entries of pc resolve
// against base; absolute ones are used as-is.
func NewPaths(base string, pc PathsConfig) *Paths {
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	dataDir := resolve(pc.DataDir, DefaultDataDir)
	reportsDir := filepath.Join(dataDir, "reports")
	combinedDir := filepath.Join(reportsDir, "combined")
	summaryDir := filepath.Join(reportsDir, "summary")
	downloadsDir := filepath.Join(dataDir, "downloads")

	return &Paths{
		BaseDir:      base,
		DataDir:      dataDir,
		DownloadsDir: downloadsDir,
		ReportsDir:   reportsDir,
		CacheDir:     filepath.Join(dataDir, "cache"),
		LogsDir:      resolve(pc.LogsDir, DefaultLogsDir),
		FishingDir:   filepath.Join(dataDir, "fishing"),

		CombinedReportsDir: combinedDir,
		SummaryReportsDir:  summaryDir,
		FishingReportsDir:  filepath.Join(reportsDir, "fishing"),

		CredentialsFile: resolve(pc.CredentialsFile, DefaultCredentialsFile),

		CombinedDataCSV:      filepath.Join(combinedDir, CombinedDataFile),
		AnalysisJSON:         filepath.Join(summaryDir, AnalysisReportFile),
		QualityJSON:          filepath.Join(summaryDir, QualityReportFile),
		DownloadMetadataJSON: filepath.Join(downloadsDir, DownloadMetadataFile),
		DatabaseFile:         filepath.Join(dataDir, DatabaseFileName),
	}
}

func executableDir() (string, error) {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return filepath.Abs(home)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.DownloadsDir,
		p.ReportsDir,
		p.CombinedReportsDir,
		p.SummaryReportsDir,
		p.FishingReportsDir,
		p.FishingDir,
		p.CacheDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetDownloadPath returns the full path for a downloaded file
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetFishingReportPath returns the full path for a fishing report file
func (p *Paths) GetFishingReportPath(filename string) string {
	return filepath.Join(p.FishingReportsDir, filename)
}

// GetCachePath returns the full path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetInsightsPath returns the timestamped insights file for t
func (p *Paths) GetInsightsPath(t time.Time) string {
	name := fmt.Sprintf(InsightsFilePattern, t.Format(InsightsStampLayout))
	return filepath.Join(p.SummaryReportsDir, name)
}

// LogPathResolution logs the resolved layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("fishing_input", p.FishingDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("credentials", p.CredentialsFile),
			slog.String("combined_csv", p.CombinedDataCSV),
			slog.String("database", p.DatabaseFile),
		))
}
