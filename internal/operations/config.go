package operations

import (
	"time"

	"seafoodpulse/internal/config"
)

// Config controls how the manager runs steps
type Config struct {
	// Per-step timeouts; steps without an entry use DefaultStepTimeout
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	RetryConfig RetryConfig `json:"retry_config"`

	// Keep running later steps after a step fails
	ContinueOnError bool `json:"continue_on_error"`

	// How many finished operations List keeps
	HistoryLimit int `json:"history_limit"`
}

// NewConfig returns the default manager configuration
func NewConfig() *Config {
	return &Config{
		StepTimeouts: map[string]time.Duration{
			StepIDScraping:   DefaultScrapingTimeout,
			StepIDProcessing: DefaultProcessingTimeout,
			StepIDAnalysis:   DefaultAnalysisTimeout,
			StepIDFishing:    DefaultFishingTimeout,
		},
		RetryConfig:  NewRetryConfig(),
		HistoryLimit: 50,
	}
}

// FromPipelineConfig builds a manager configuration from application config.
// Zero values keep the defaults.
func FromPipelineConfig(pc config.PipelineConfig) *Config {
	c := NewConfig()
	c.ContinueOnError = pc.ContinueOnError
	if pc.MaxAttempts > 0 {
		c.RetryConfig.MaxAttempts = pc.MaxAttempts
	}
	if pc.InitialDelay > 0 {
		c.RetryConfig.InitialDelay = pc.InitialDelay
	}
	if pc.MaxDelay > 0 {
		c.RetryConfig.MaxDelay = pc.MaxDelay
	}
	for id, d := range map[string]time.Duration{
		StepIDScraping:   pc.ScrapingTimeout,
		StepIDProcessing: pc.ProcessingTimeout,
		StepIDAnalysis:   pc.AnalysisTimeout,
		StepIDFishing:    pc.FishingTimeout,
	} {
		if d > 0 {
			c.SetStepTimeout(id, d)
		}
	}
	return c
}

// StepTimeout returns the timeout for stepID
func (c *Config) StepTimeout(stepID string) time.Duration {
	if d, ok := c.StepTimeouts[stepID]; ok && d > 0 {
		return d
	}
	return DefaultStepTimeout
}

// SetStepTimeout overrides the timeout for stepID
func (c *Config) SetStepTimeout(stepID string, d time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = d
}

// RetryDelay is the backoff before the given retry (1-based attempt that failed)
func (c *Config) RetryDelay(attempt int) time.Duration {
	rc := c.RetryConfig
	delay := rc.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.Multiplier)
		if delay > rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		return rc.MaxDelay
	}
	return delay
}
