package config

import (
	"encoding/json"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	ID          string                 `json:"$id,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`
}

const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// GenerateSchema describes the configuration file.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/gridbalancer/gridbalancer.schema.json",
		Title:       "gridbalancer configuration",
		Type:        "object",
		Properties: map[string]*JSONSchema{
			"name":      {Type: "string", Default: "gridbalancer"},
			"agent":     agentSchema(),
			"llm":       llmSchema(),
			"logging":   loggingSchema(),
			"storage":   storageSchema(),
			"telemetry": telemetrySchema(),
		},
	}
}

func agentSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Control loop settings",
		Properties: map[string]*JSONSchema{
			"max_steps":         {Type: "integer", Default: config.DefaultMaxSteps, Minimum: floatPtr(0)},
			"history_size":      {Type: "integer", Default: config.DefaultHistorySize, Minimum: floatPtr(0)},
			"history_tokens":    {Type: "integer", Description: "Token bound on memory, 0 disables", Minimum: floatPtr(0)},
			"step_delay":        {Type: "string", Default: config.DefaultStepDelay.String(), Pattern: durationPattern},
			"enforce_stability": {Type: "boolean", Default: true},
			"seed":              {Type: "integer", Default: config.DefaultSeed, Minimum: floatPtr(0)},
			"scenario":          {Type: "integer", Default: 1, Minimum: floatPtr(1), Maximum: floatPtr(5)},
		},
	}
}

func llmSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Language model selection",
		Properties: map[string]*JSONSchema{
			"provider":    {Type: "string", Enum: config.Providers(), Default: config.ProviderHuggingFace},
			"model":       {Type: "string", Default: config.DefaultModel},
			"base_url":    {Type: "string", Description: "Override the provider endpoint"},
			"api_key":     {Type: "string", Description: "Prefer ${ENV} references over literal keys"},
			"temperature": {Type: "number", Default: config.DefaultTemperature, Minimum: floatPtr(0), Maximum: floatPtr(2)},
			"max_tokens":  {Type: "integer", Default: config.DefaultMaxTokens, Minimum: floatPtr(1)},
			"timeout":     {Type: "string", Default: config.DefaultLLMTimeout.String(), Pattern: durationPattern},
			"retries":     {Type: "integer", Default: config.DefaultRetries, Minimum: floatPtr(1)},
		},
	}
}

func loggingSchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"level":  {Type: "string", Enum: []string{"trace", "debug", "info", "warn", "error"}, Default: "info"},
			"format": {Type: "string", Enum: []string{"console", "json"}, Default: "console"},
			"dir":    {Type: "string", Description: "Directory for per-run trace files", Default: config.DefaultLogDir},
		},
	}
}

func storageSchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"backend": {Type: "string", Enum: config.Backends(), Default: config.BackendNone},
			"path":    {Type: "string", Description: "Database file (sqlite) or directory (badger)"},
		},
	}
}

func telemetrySchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"tracing":      {Type: "boolean", Default: false},
			"exporter":     {Type: "string", Enum: config.Exporters(), Default: config.ExporterStdout},
			"endpoint":     {Type: "string", Description: "OTLP gRPC endpoint"},
			"sample_ratio": {Type: "number", Default: 1, Minimum: floatPtr(0), Maximum: floatPtr(1)},
		},
	}
}

// JSON renders the schema indented.
func (s *JSONSchema) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func floatPtr(f float64) *float64 {
	return &f
}
