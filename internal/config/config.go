package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Scraper   ScraperConfig   `yaml:"scraper" envconfig:"SCRAPER"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port             int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout      time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout     time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	OperationTimeout time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console stderr file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration.
// Relative directories resolve against BaseDir, which defaults to the
// executable directory.
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// ScraperConfig controls discovery and download of statistics files
type ScraperConfig struct {
	BaseURL          string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	UserAgent        string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	PageTimeout      time.Duration `yaml:"page_timeout" envconfig:"PAGE_TIMEOUT" validate:"gt=0"`
	DownloadTimeout  time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" validate:"gt=0"`
	MaxRetries       int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"gte=0,lte=10"`
	RequestsPerSec   float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" validate:"gt=0"`
	Concurrency      int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=16"`
	ExploreDataPages bool          `yaml:"explore_data_pages" envconfig:"EXPLORE_DATA_PAGES"`
	UseBrowser       bool          `yaml:"use_browser" envconfig:"USE_BROWSER"`
	BrowserTimeout   time.Duration `yaml:"browser_timeout" envconfig:"BROWSER_TIMEOUT"`
}

// PipelineConfig controls operation step execution
type PipelineConfig struct {
	ContinueOnError   bool          `yaml:"continue_on_error" envconfig:"CONTINUE_ON_ERROR"`
	MaxAttempts       int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1"`
	InitialDelay      time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY"`
	MaxDelay          time.Duration `yaml:"max_delay" envconfig:"MAX_DELAY"`
	ScrapingTimeout   time.Duration `yaml:"scraping_timeout" envconfig:"SCRAPING_TIMEOUT"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout" envconfig:"PROCESSING_TIMEOUT"`
	AnalysisTimeout   time.Duration `yaml:"analysis_timeout" envconfig:"ANALYSIS_TIMEOUT"`
	FishingTimeout    time.Duration `yaml:"fishing_timeout" envconfig:"FISHING_TIMEOUT"`
	Sheet             string        `yaml:"sheet" envconfig:"SHEET"`
}

// StoreConfig selects the SQL backend for combined tables
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER" validate:"oneof=sqlite pgx"`
	DSN    string `yaml:"dsn" envconfig:"DSN"`
}

// SheetsConfig configures publishing of the combined table to Google Sheets
type SheetsConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" validate:"required_if=Enabled true"`
	SheetName     string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// TelemetryConfig configures OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout otlp none"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint" envconfig:"OTLP_ENDPOINT"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load loads configuration from the first config file found in the
// standard locations and from SEAFOOD_* environment variables.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration with precedence env > file > defaults.
// An empty configFile skips the file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		if err := mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Pipeline.InitialDelay > c.Pipeline.MaxDelay {
		return fmt.Errorf("pipeline initial delay %s exceeds max delay %s",
			c.Pipeline.InitialDelay, c.Pipeline.MaxDelay)
	}

	return nil
}

// ResolvePaths returns the directory layout for this configuration
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}
	return NewPaths(base, c.Paths), nil
}

// StoreDSN returns the configured DSN or the default SQLite file
func (c *Config) StoreDSN(paths *Paths) string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return paths.DatabaseFile
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     15 * time.Second,
			IdleTimeout:      60 * time.Second,
			ShutdownTimeout:  30 * time.Second,
			OperationTimeout: 2 * time.Hour,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:         DefaultDataDir,
			LogsDir:         DefaultLogsDir,
			CredentialsFile: DefaultCredentialsFile,
		},
		Scraper: ScraperConfig{
			BaseURL:          DefaultArchiveURL,
			UserAgent:        DefaultUserAgent,
			PageTimeout:      30 * time.Second,
			DownloadTimeout:  60 * time.Second,
			MaxRetries:       3,
			RequestsPerSec:   2,
			Concurrency:      4,
			ExploreDataPages: true,
			BrowserTimeout:   45 * time.Second,
		},
		Pipeline: PipelineConfig{
			MaxAttempts:       3,
			InitialDelay:      1 * time.Second,
			MaxDelay:          30 * time.Second,
			ScrapingTimeout:   60 * time.Minute,
			ProcessingTimeout: 30 * time.Minute,
			AnalysisTimeout:   10 * time.Minute,
			FishingTimeout:    10 * time.Minute,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Sheets: SheetsConfig{
			SheetName: DefaultSheetName,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
