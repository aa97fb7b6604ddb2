package config

import "time"

// Default values applied to unset fields.
const (
	DefaultMaxSteps    = 20
	DefaultHistorySize = 6
	DefaultStepDelay   = time.Second
	DefaultModel       = "Qwen/Qwen2.5-Coder-32B-Instruct"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 600
	DefaultLLMTimeout  = 60 * time.Second
	DefaultRetries     = 3
	DefaultLogDir      = "logs"
	DefaultSeed        = 363251497
)

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	c := &AppConfig{Name: "gridbalancer"}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields. Step delay and temperature are pointers
// so an explicit zero survives.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "gridbalancer"
	}

	if c.Agent.MaxSteps == 0 {
		c.Agent.MaxSteps = DefaultMaxSteps
	}
	if c.Agent.HistorySize == 0 {
		c.Agent.HistorySize = DefaultHistorySize
	}
	if c.Agent.StepDelay == nil {
		d := Duration(DefaultStepDelay)
		c.Agent.StepDelay = &d
	}
	if c.Agent.Seed == 0 {
		c.Agent.Seed = DefaultSeed
	}
	if c.Agent.Scenario == 0 {
		c.Agent.Scenario = 1
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderHuggingFace
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModelFor(c.LLM.Provider)
	}
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = Duration(DefaultLLMTimeout)
	}
	if c.LLM.Retries == 0 {
		c.LLM.Retries = DefaultRetries
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = DefaultLogDir
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendNone
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = ExporterStdout
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
}

// DefaultModelFor returns the model used when a provider is chosen without
// naming one.
func DefaultModelFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOllama:
		return "qwen2.5-coder"
	case ProviderOffline:
		return "scripted"
	default:
		return DefaultModel
	}
}
