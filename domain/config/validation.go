package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates application configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

var (
	validProviders = []string{ProviderHuggingFace, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama, ProviderOffline}
	validBackends  = []string{BackendNone, BackendMemory, BackendSQLite, BackendBadger}
	validExporters = []string{ExporterNone, ExporterStdout, ExporterOTLP}
	validLevels    = []string{"trace", "debug", "info", "warn", "error"}
	validFormats   = []string{"console", "json"}
)

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(c *AppConfig) ValidationErrors {
	v.errors = nil

	v.validateAgent(c.Agent)
	v.validateLLM(c.LLM)
	v.validateLogging(c.Logging)
	v.validateStorage(c.Storage)
	v.validateTelemetry(c.Telemetry)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateAgent(a AgentSettings) {
	if a.MaxSteps < 0 {
		v.addError("agent.max_steps", "max_steps must be non-negative")
	}
	if a.HistorySize < 0 {
		v.addError("agent.history_size", "history_size must be non-negative")
	}
	if a.HistoryTokens < 0 {
		v.addError("agent.history_tokens", "history_tokens must be non-negative")
	}
	if a.StepDelay != nil && *a.StepDelay < 0 {
		v.addError("agent.step_delay", "step_delay must be non-negative")
	}
	if a.Scenario < 0 || a.Scenario > 5 {
		v.addError("agent.scenario", fmt.Sprintf("unknown scenario: %d", a.Scenario))
	}
}

func (v *Validator) validateLLM(l LLMConfig) {
	if l.Provider != "" && !slices.Contains(validProviders, l.Provider) {
		v.addError("llm.provider", fmt.Sprintf("unknown provider: %s", l.Provider))
	}
	if t := l.SamplingTemperature(); t < 0 || t > 2 {
		v.addError("llm.temperature", "temperature must be between 0 and 2")
	}
	if l.MaxTokens < 0 {
		v.addError("llm.max_tokens", "max_tokens must be non-negative")
	}
	if l.Retries < 0 {
		v.addError("llm.retries", "retries must be non-negative")
	}
}

func (v *Validator) validateLogging(l LoggingConfig) {
	if l.Level != "" && !slices.Contains(validLevels, strings.ToLower(l.Level)) {
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", l.Level))
	}
	if l.Format != "" && !slices.Contains(validFormats, l.Format) {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", l.Format))
	}
}

func (v *Validator) validateStorage(s StorageConfig) {
	if s.Backend != "" && !slices.Contains(validBackends, s.Backend) {
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", s.Backend))
	}
	if (s.Backend == BackendSQLite || s.Backend == BackendBadger) && s.Path == "" {
		v.addError("storage.path", fmt.Sprintf("path is required for %s backend", s.Backend))
	}
}

func (v *Validator) validateTelemetry(t TelemetryConfig) {
	if t.Exporter != "" && !slices.Contains(validExporters, t.Exporter) {
		v.addError("telemetry.exporter", fmt.Sprintf("unknown exporter: %s", t.Exporter))
	}
	if t.Tracing && t.Exporter == ExporterOTLP && t.Endpoint == "" {
		v.addError("telemetry.endpoint", "endpoint is required for otlp exporter")
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		v.addError("telemetry.sample_ratio", "sample_ratio must be between 0 and 1")
	}
}

// Providers returns the accepted llm.provider values.
func Providers() []string { return slices.Clone(validProviders) }

// Backends returns the accepted storage.backend values.
func Backends() []string { return slices.Clone(validBackends) }

// Exporters returns the accepted telemetry.exporter values.
func Exporters() []string { return slices.Clone(validExporters) }
