package operations

import (
	"time"

	"seafoodpulse/pkg/contracts/events"
)

// Step identifiers
const (
	StepIDScraping   = "scraping"
	StepIDProcessing = "processing"
	StepIDAnalysis   = "analysis"
	StepIDFishing    = "fishing"
)

// Step display names
const (
	StepNameScraping   = "Data Collection"
	StepNameProcessing = "Data Processing"
	StepNameAnalysis   = "Market Analysis"
	StepNameFishing    = "Fishing Events"
)

// Keys used to pass results between steps through OperationState.Context
const (
	ContextKeyDownloaded   = "downloaded_files"
	ContextKeyRecordCount  = "record_count"
	ContextKeyCombinedCSV  = "combined_csv"
	ContextKeyInsightsFile = "insights_file"
)

// ParamStep selects a single step instead of the full pipeline
const ParamStep = "step"

// FullPipeline is the ParamStep value that runs every step
const FullPipeline = "full_pipeline"

// Step-specific request parameters
const (
	ParamInputDir  = "input_dir"
	ParamInputFile = "input_file"
	ParamInputURL  = "input_url"
)

// EventTypeSnapshot is the WebSocket event carrying operation snapshots
const EventTypeSnapshot = string(events.MessageTypeOperationSnapshot)

// Default step timeouts
const (
	DefaultStepTimeout       = 30 * time.Minute
	DefaultScrapingTimeout   = 60 * time.Minute
	DefaultProcessingTimeout = 30 * time.Minute
	DefaultAnalysisTimeout   = 10 * time.Minute
	DefaultFishingTimeout    = 10 * time.Minute
)

// RetryConfig controls how failing steps are retried
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns 3 attempts with 1s initial backoff doubling up to 30s
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest asks the manager to run the pipeline or a single step
type OperationRequest struct {
	ID         string         `json:"id,omitempty" validate:"omitempty,max=64"`
	Mode       string         `json:"mode,omitempty" validate:"omitempty,oneof=full partial"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Step returns the requested single step, or "" for the full pipeline
func (r OperationRequest) Step() string {
	s, _ := r.Parameters[ParamStep].(string)
	if s == FullPipeline {
		return ""
	}
	return s
}

// OperationType describes a runnable step for clients
type OperationType struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Dependencies []string              `json:"dependencies"`
	Optional     bool                  `json:"optional"`
	Parameters   []ParameterDefinition `json:"parameters"`
}

// ParameterDefinition documents one accepted request parameter
type ParameterDefinition struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     any      `json:"default,omitempty"`
	Options     []string `json:"options,omitempty"`
}
