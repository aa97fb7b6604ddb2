package grid

import (
	"errors"
	"testing"
)

func TestScenarios(t *testing.T) {
	t.Parallel()

	all := Scenarios()
	if len(all) != 5 {
		t.Fatalf("len(Scenarios()) = %d, want 5", len(all))
	}
	for i, s := range all {
		if s.ID != i+1 {
			t.Errorf("Scenarios()[%d].ID = %d, want %d", i, s.ID, i+1)
		}
		if !s.Weather.IsValid() {
			t.Errorf("scenario %d has invalid weather %q", s.ID, s.Weather)
		}
	}

	// Callers cannot mutate the catalogue.
	all[0].Hour = 3
	if Scenarios()[0].Hour != 12 {
		t.Error("Scenarios() exposes internal slice")
	}
}

func TestLookupScenario(t *testing.T) {
	t.Parallel()

	s, err := LookupScenario(4)
	if err != nil {
		t.Fatalf("LookupScenario(4) error = %v", err)
	}
	if s.GasReserveMW != 40 || s.Hour != 10 || s.Weather != WeatherSunny {
		t.Errorf("LookupScenario(4) = %+v", s)
	}

	if _, err := LookupScenario(9); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("LookupScenario(9) error = %v, want ErrUnknownScenario", err)
	}
}

func TestScenarioOrDefault(t *testing.T) {
	t.Parallel()

	for _, id := range []int{0, -3, 6, 42} {
		if got := ScenarioOrDefault(id); got.ID != DefaultScenarioID {
			t.Errorf("ScenarioOrDefault(%d).ID = %d, want %d", id, got.ID, DefaultScenarioID)
		}
	}
	if got := ScenarioOrDefault(2); got.ID != 2 {
		t.Errorf("ScenarioOrDefault(2).ID = %d, want 2", got.ID)
	}
}

func TestScenario_Apply(t *testing.T) {
	t.Parallel()

	w := ScenarioOrDefault(2).Apply(DefaultWorld())
	want := WorldState{CurrentHour: 22, Weather: WeatherCloudy, GasReserveMW: 300, BaseLoadMW: DefaultBaseLoad}
	if w != want {
		t.Errorf("Apply() = %+v, want %+v", w, want)
	}
}
