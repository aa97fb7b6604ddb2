// Package config provides domain models for agent configuration.
package config

import "time"

// AppConfig represents the complete configuration of a grid balancing agent.
type AppConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`

	Agent     AgentSettings   `json:"agent" yaml:"agent"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// AgentSettings contains control loop settings.
type AgentSettings struct {
	// MaxSteps is the step ceiling of a run.
	MaxSteps int `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
	// HistorySize is the number of decisions kept in conversational memory.
	HistorySize int `json:"history_size,omitempty" yaml:"history_size,omitempty"`
	// HistoryTokens additionally bounds memory by tokens (0 = unbounded).
	HistoryTokens int `json:"history_tokens,omitempty" yaml:"history_tokens,omitempty"`
	// StepDelay is the pause between steps. Nil means unset; an explicit
	// zero disables the pause.
	StepDelay *Duration `json:"step_delay,omitempty" yaml:"step_delay,omitempty"`
	// EnforceStability blocks termination while the grid is unstable.
	EnforceStability *bool `json:"enforce_stability,omitempty" yaml:"enforce_stability,omitempty"`
	// Seed drives the simulated noise.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	// Scenario is the default scenario when none is picked.
	Scenario int `json:"scenario,omitempty" yaml:"scenario,omitempty"`
}

// StabilityEnforced resolves EnforceStability, defaulting to true.
func (a AgentSettings) StabilityEnforced() bool {
	return a.EnforceStability == nil || *a.EnforceStability
}

// Delay resolves StepDelay, defaulting to DefaultStepDelay.
func (a AgentSettings) Delay() time.Duration {
	if a.StepDelay == nil {
		return DefaultStepDelay
	}
	return a.StepDelay.Duration()
}

// Provider names.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderGemini      = "gemini"
	ProviderOllama      = "ollama"
	ProviderOffline     = "offline"
)

// LLMConfig selects and tunes the language model.
type LLMConfig struct {
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL     string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey      string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Temperature is nil when unset; zero asks for greedy sampling.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout     Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retries is the number of attempts per model call.
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// SamplingTemperature resolves Temperature, defaulting to
// DefaultTemperature.
func (l LLMConfig) SamplingTemperature() float64 {
	if l.Temperature == nil {
		return DefaultTemperature
	}
	return *l.Temperature
}

// LoggingConfig configures diagnostics and the trace file.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// Dir receives one trace file per run; empty disables the file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Storage backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// StorageConfig selects where runs and traces are persisted.
type StorageConfig struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Tracing     bool    `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Exporter    string  `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	Endpoint    string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	SampleRatio float64 `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
