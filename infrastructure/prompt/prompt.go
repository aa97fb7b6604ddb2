// Package prompt renders the state-specific system prompts sent to the
// model.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/gridtools"
)

//go:embed templates/*.tpl
var templateFS embed.FS

const (
	baseTemplate    = "base.tpl"
	unknownTemplate = "unknown.tpl"
)

// Data is what a state template can reference.
type Data struct {
	State        agent.State
	Forecast     float64
	LastDemand   float64
	Capacity     *grid.Capacity
	CapacityJSON string
	Metrics      *grid.Metrics
	MetricsJSON  string
	Tolerance    float64
	ToolCalled   bool

	ForecastTool string
	CapacityTool string
	DispatchTool string
}

// NewData builds template data from the run's observations.
func NewData(state agent.State, obs agent.Observations) Data {
	return Data{
		State:        state,
		Forecast:     obs.ForecastMW,
		LastDemand:   obs.LastDemandMW,
		Capacity:     obs.Capacity,
		CapacityJSON: toJSON(obs.Capacity),
		Metrics:      obs.LastMetrics,
		MetricsJSON:  toJSON(obs.LastMetrics),
		Tolerance:    grid.FrequencyTolerance,
		ToolCalled:   obs.ToolCalledInState,
		ForecastTool: gridtools.AliasForecast,
		CapacityTool: gridtools.AliasCapacity,
		DispatchTool: gridtools.AliasDispatch,
	}
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "{}"
	}
	return string(b)
}

// Renderer renders system prompts from the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("prompts").
		Funcs(template.FuncMap{
			"mw": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		}).
		ParseFS(templateFS, "templates/*.tpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer that panics on error.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render returns the base persona followed by the instructions for the
// state in data. Unknown states get an instruction to terminate.
func (r *Renderer) Render(data Data) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return "", fmt.Errorf("render base prompt: %w", err)
	}
	buf.WriteString("\n\n")

	name := string(data.State) + ".tpl"
	if !data.State.IsValid() || r.tmpl.Lookup(name) == nil {
		name = unknownTemplate
	}
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", data.State, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// System renders the prompt for state given the current observations.
func (r *Renderer) System(state agent.State, obs agent.Observations) (string, error) {
	return r.Render(NewData(state, obs))
}

// Nudge is the user turn that closes every request.
const Nudge = "Decide the next action. Respond with a single JSON object."
