package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

func echo(_ context.Context, input json.RawMessage) (tool.Result, error) {
	return tool.NewResult(input), nil
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *tool.Builder
		wantErr error
	}{
		{
			name:    "valid tool",
			builder: tool.NewBuilder("forecast").WithDescription("d").WithHandler(echo),
		},
		{
			name:    "empty name fails",
			builder: tool.NewBuilder(" ").WithHandler(echo),
			wantErr: tool.ErrEmptyName,
		},
		{
			name:    "missing handler fails",
			builder: tool.NewBuilder("x"),
			wantErr: tool.ErrNoHandler,
		},
		{
			name:    "empty alias fails",
			builder: tool.NewBuilder("x").WithAliases("ok", "").WithHandler(echo),
			wantErr: tool.ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.builder.Build()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_Annotations(t *testing.T) {
	t.Parallel()

	ro := tool.NewBuilder("ro").ReadOnly().Idempotent().WithHandler(echo).MustBuild()
	if a := ro.Annotations(); !a.ReadOnly || a.RiskLevel != tool.RiskNone || !a.Retryable() {
		t.Errorf("read-only annotations = %+v", a)
	}

	mut := tool.NewBuilder("mut").MutatesWorld().WithHandler(echo).MustBuild()
	if a := mut.Annotations(); !a.MutatesWorld || a.RiskLevel != tool.RiskMedium || a.Retryable() {
		t.Errorf("mutating annotations = %+v", a)
	}
}

func TestDefinition_Execute(t *testing.T) {
	t.Parallel()

	schema := tool.ObjectSchema(map[string]json.RawMessage{
		"hour_offset": json.RawMessage(`{"type":"integer"}`),
	}, []string{"hour_offset"})

	tl := tool.NewBuilder("forecast").
		WithAliases("forecast_demand").
		WithInputSchema(schema).
		WithHandler(echo).
		MustBuild()

	if got := tl.Aliases(); len(got) != 1 || got[0] != "forecast_demand" {
		t.Errorf("Aliases() = %v", got)
	}

	res, err := tl.Execute(context.Background(), json.RawMessage(`{"hour_offset":2}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.OutputString() != `{"hour_offset":2}` {
		t.Errorf("Output = %s", res.Output)
	}

	for _, in := range []string{`{}`, `[1]`, `nope`} {
		if _, err := tl.Execute(context.Background(), json.RawMessage(in)); !errors.Is(err, tool.ErrInvalidInput) {
			t.Errorf("Execute(%s) error = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestResult_Decode(t *testing.T) {
	t.Parallel()

	res, err := tool.NewJSONResult(map[string]float64{"forecast_mw": 181.2})
	if err != nil {
		t.Fatalf("NewJSONResult() error = %v", err)
	}
	var out struct {
		ForecastMW float64 `json:"forecast_mw"`
	}
	if err := res.Decode(&out); err != nil || out.ForecastMW != 181.2 {
		t.Errorf("Decode() = %+v, %v", out, err)
	}
}

func TestSchema_EmptyAcceptsAnything(t *testing.T) {
	t.Parallel()

	s := tool.EmptySchema()
	if !s.IsEmpty() {
		t.Error("EmptySchema().IsEmpty() = false")
	}
	for _, in := range []string{``, `{}`, `[1,2]`, `"x"`} {
		if err := s.Validate(json.RawMessage(in)); err != nil {
			t.Errorf("Validate(%q) error = %v", in, err)
		}
	}
	if err := s.Validate(json.RawMessage(`{`)); !errors.Is(err, tool.ErrInvalidInput) {
		t.Errorf("Validate(invalid) error = %v", err)
	}
}
