package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	if c.Agent.MaxSteps != 20 || c.Agent.HistorySize != 6 {
		t.Errorf("agent defaults = %+v", c.Agent)
	}
	if c.Agent.Delay() != time.Second {
		t.Errorf("StepDelay = %v, want 1s", c.Agent.Delay())
	}
	if !c.Agent.StabilityEnforced() {
		t.Error("StabilityEnforced() = false by default")
	}
	if c.LLM.Provider != ProviderHuggingFace || c.LLM.Model != DefaultModel {
		t.Errorf("llm defaults = %+v", c.LLM)
	}
	if c.LLM.SamplingTemperature() != 0.1 || c.LLM.MaxTokens != 600 {
		t.Errorf("llm tuning = %+v", c.LLM)
	}
	if c.Logging.Dir != "logs" {
		t.Errorf("Logging.Dir = %q", c.Logging.Dir)
	}
	if errs := NewValidator().Validate(c); errs.HasErrors() {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestDefaultModelFor(t *testing.T) {
	t.Parallel()

	c := &AppConfig{LLM: LLMConfig{Provider: ProviderAnthropic}}
	c.ApplyDefaults()
	if c.LLM.Model != DefaultModelFor(ProviderAnthropic) {
		t.Errorf("Model = %q", c.LLM.Model)
	}
}

func TestStabilityEnforced(t *testing.T) {
	t.Parallel()

	off := false
	if (AgentSettings{EnforceStability: &off}).StabilityEnforced() {
		t.Error("explicit false ignored")
	}
}

func TestApplyDefaults_KeepsExplicitZero(t *testing.T) {
	t.Parallel()

	var c AppConfig
	if err := yaml.Unmarshal([]byte("agent:\n  step_delay: 0s\nllm:\n  temperature: 0\n"), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	c.ApplyDefaults()

	if c.Agent.Delay() != 0 {
		t.Errorf("Delay() = %v, want 0", c.Agent.Delay())
	}
	if c.LLM.SamplingTemperature() != 0 {
		t.Errorf("SamplingTemperature() = %v, want 0", c.LLM.SamplingTemperature())
	}
	if errs := NewValidator().Validate(&c); errs.HasErrors() {
		t.Errorf("Validate() = %v", errs)
	}

	var unset AppConfig
	unset.ApplyDefaults()
	if unset.Agent.Delay() != DefaultStepDelay || unset.LLM.SamplingTemperature() != DefaultTemperature {
		t.Errorf("unset config = %v, %v", unset.Agent.Delay(), unset.LLM.SamplingTemperature())
	}
}

func TestDuration_RoundTrip(t *testing.T) {
	t.Parallel()

	var fromJSON struct {
		D Duration `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"250ms"}`), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal error = %v", err)
	}
	if fromJSON.D.Duration() != 250*time.Millisecond {
		t.Errorf("json duration = %v", fromJSON.D.Duration())
	}

	var fromYAML struct {
		D Duration `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: 2s\n"), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal error = %v", err)
	}
	if fromYAML.D.Duration() != 2*time.Second {
		t.Errorf("yaml duration = %v", fromYAML.D.Duration())
	}

	out, _ := json.Marshal(Duration(time.Minute))
	if string(out) != `"1m0s"` {
		t.Errorf("MarshalJSON = %s", out)
	}
}

func TestValidator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		path   string
	}{
		{"negative steps", func(c *AppConfig) { c.Agent.MaxSteps = -1 }, "agent.max_steps"},
		{"bad scenario", func(c *AppConfig) { c.Agent.Scenario = 9 }, "agent.scenario"},
		{"bad provider", func(c *AppConfig) { c.LLM.Provider = "bard" }, "llm.provider"},
		{"hot temperature", func(c *AppConfig) { hot := 3.0; c.LLM.Temperature = &hot }, "llm.temperature"},
		{"bad level", func(c *AppConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"sqlite without path", func(c *AppConfig) { c.Storage.Backend = BackendSQLite }, "storage.path"},
		{"otlp without endpoint", func(c *AppConfig) {
			c.Telemetry.Tracing = true
			c.Telemetry.Exporter = ExporterOTLP
		}, "telemetry.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := Default()
			tt.mutate(c)
			errs := NewValidator().Validate(c)
			if !errs.HasErrors() {
				t.Fatal("Validate() returned no errors")
			}
			if errs[0].Path != tt.path {
				t.Errorf("first error path = %q, want %q", errs[0].Path, tt.path)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	errs := ValidationErrors{{Path: "a", Message: "x"}, {Message: "y"}}
	msg := errs.Error()
	if !strings.HasPrefix(msg, "2 validation errors") || !strings.Contains(msg, "a: x") {
		t.Errorf("Error() = %q", msg)
	}
	if (ValidationErrors{}).Error() != "no validation errors" {
		t.Error("empty Error() mismatch")
	}
}
