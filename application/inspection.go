package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
)

// ExportFormat names an export encoding.
type ExportFormat string

// Supported export formats.
const (
	FormatJSON    ExportFormat = "json"
	FormatDOT     ExportFormat = "dot"
	FormatMermaid ExportFormat = "mermaid"
)

// ErrUnsupportedFormat is returned for an export format the target cannot
// be rendered in.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// InspectionService exports runs and the state machine graph.
type InspectionService struct {
	replay      *Replay
	transitions *policy.StateTransitions
	eligibility *policy.ToolEligibility
}

// NewInspectionService creates an inspection service. Replay may be nil
// when only the graph is needed.
func NewInspectionService(replay *Replay) *InspectionService {
	return &InspectionService{
		replay:      replay,
		transitions: policy.DefaultTransitions(),
		eligibility: policy.DefaultEligibility(),
	}
}

// ExportRun renders a stored run and its timeline as indented JSON.
func (s *InspectionService) ExportRun(ctx context.Context, runID string) ([]byte, error) {
	if s.replay == nil {
		return nil, errors.New("no run store configured")
	}
	rec, err := s.replay.Load(ctx, runID)
	if err != nil {
		return nil, err
	}

	out := struct {
		*RunRecord
		Timeline  []StepRecord  `json:"timeline"`
		StatePath []agent.State `json:"state_path"`
	}{rec, rec.Steps(), rec.StatePath()}
	return json.MarshalIndent(out, "", "  ")
}

// ExportStateMachine renders the transition graph. Edges that only exist
// as fallbacks to ADJUSTMENT or TERMINATED are drawn dashed.
func (s *InspectionService) ExportStateMachine(format ExportFormat) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(s.dot()), nil
	case FormatMermaid:
		return []byte(s.mermaid()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

type edge struct {
	from, to agent.State
	fallback bool
}

func (s *InspectionService) edges() []edge {
	var out []edge
	for _, from := range agent.NonTerminalStates() {
		next, hasNext := policy.NextOnPath(from)
		for _, to := range s.transitions.AllowedTransitions(from) {
			fallback := (to == agent.StateAdjustment || to == agent.StateTerminated) &&
				!(hasNext && next == to) &&
				!(from == agent.StateStabilityCheck)
			out = append(out, edge{from: from, to: to, fallback: fallback})
		}
	}
	return out
}

func (s *InspectionService) label(state agent.State) string {
	tools := s.eligibility.AllowedTools(state)
	if len(tools) == 0 {
		return string(state)
	}
	return string(state) + "\\n" + strings.Join(tools, ", ")
}

func (s *InspectionService) dot() string {
	var b strings.Builder
	b.WriteString("digraph gridbalancer {\n  rankdir=LR;\n")
	for _, st := range agent.AllStates() {
		shape := "box"
		if st.IsTerminal() {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "  %s [shape=%s, label=\"%s\"];\n", st, shape, s.label(st))
	}
	for _, e := range s.edges() {
		style := ""
		if e.fallback {
			style = " [style=dashed]"
		}
		fmt.Fprintf(&b, "  %s -> %s%s;\n", e.from, e.to, style)
	}
	b.WriteString("}\n")
	return b.String()
}

func (s *InspectionService) mermaid() string {
	var b strings.Builder
	b.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&b, "  [*] --> %s\n", agent.StateInitializing)
	for _, e := range s.edges() {
		if e.fallback {
			fmt.Fprintf(&b, "  %s --> %s: fallback\n", e.from, e.to)
			continue
		}
		fmt.Fprintf(&b, "  %s --> %s\n", e.from, e.to)
	}
	fmt.Fprintf(&b, "  %s --> [*]\n", agent.StateTerminated)
	return b.String()
}
