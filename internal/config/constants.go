package config

import "time"

// Application constants for SeafoodPulse
const (
	AppName   = "SeafoodPulse"
	EnvPrefix = "SEAFOOD"

	// HomeEnvVar overrides the executable directory as the base for all paths
	HomeEnvVar = "SEAFOOD_HOME"

	// Rate Limiting
	DefaultRateLimit = 20.0 // requests per second
	DefaultBurstSize = 40

	// Scraper defaults
	DefaultArchiveURL = "https://en.seafood.no/market-insight/statistics-archive/"
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to the base directory)
	DefaultDataDir         = "data"
	DefaultLogsDir         = "logs"
	DefaultLogFile         = "logs/seafood.log"
	DefaultCredentialsFile = "credentials.json"

	// DefaultSheetName is the tab the combined table is published to
	DefaultSheetName = "combined"
)

// Well-known file names
const (
	CombinedDataFile     = "combined_seafood_data.csv"
	AnalysisReportFile   = "seafood_analysis.json"
	QualityReportFile    = "seafood_quality.json"
	DownloadMetadataFile = "download_metadata.json"
	DatabaseFileName     = "seafood.db"

	// InsightsFilePattern takes a YYYYMMDD_HHMMSS stamp
	InsightsFilePattern = "seafood_insights_%s.json"
	InsightsStampLayout = "20060102_150405"

	FishingEventsFile    = "processed_fishing_events.csv"
	FishingAnalysisFile  = "port_visit_analysis.csv"
	FishingPortStatsFile = "port_summary_stats.csv"
	FishingCountryFile   = "port_country_summary.csv"
	FishingReportFile    = "processing_report.json"
)

// Upper bound for a plausible port stay, in hours
const MaxPortStayHours = 8760.0
