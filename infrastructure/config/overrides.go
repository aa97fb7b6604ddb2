package config

import (
	"time"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
)

// Overrides carries command-line values that win over the file. Nil or
// empty fields leave the loaded value alone.
type Overrides struct {
	Provider    string
	Model       string
	BaseURL     string
	Offline     bool
	MaxSteps    *int
	StepDelay   *time.Duration
	Seed        *uint64
	LogDir      *string
	LogLevel    string
	LogFormat   string
	Storage     string
	StoragePath string
	Exporter    string
	Tracing     *bool
}

// Apply writes the overrides into cfg. Choosing a different provider
// without naming a model resets the model to that provider's default.
func (o Overrides) Apply(cfg *config.AppConfig) {
	if o.Offline {
		o.Provider = config.ProviderOffline
	}
	if o.Provider != "" && o.Provider != cfg.LLM.Provider {
		cfg.LLM.Provider = o.Provider
		if o.Model == "" {
			cfg.LLM.Model = config.DefaultModelFor(o.Provider)
		}
	}
	if o.Model != "" {
		cfg.LLM.Model = o.Model
	}
	if o.BaseURL != "" {
		cfg.LLM.BaseURL = o.BaseURL
	}
	if o.MaxSteps != nil {
		cfg.Agent.MaxSteps = *o.MaxSteps
	}
	if o.StepDelay != nil {
		d := config.Duration(*o.StepDelay)
		cfg.Agent.StepDelay = &d
	}
	if o.Seed != nil {
		cfg.Agent.Seed = *o.Seed
	}
	if o.LogDir != nil {
		cfg.Logging.Dir = *o.LogDir
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if o.Storage != "" {
		cfg.Storage.Backend = o.Storage
	}
	if o.StoragePath != "" {
		cfg.Storage.Path = o.StoragePath
	}
	if o.Exporter != "" {
		cfg.Telemetry.Exporter = o.Exporter
	}
	if o.Tracing != nil {
		cfg.Telemetry.Tracing = *o.Tracing
	}
}
