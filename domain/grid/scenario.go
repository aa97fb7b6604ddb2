package grid

import "fmt"

// Scenario is a named starting configuration of the world.
type Scenario struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Hour         int     `json:"hour"`
	Weather      Weather `json:"weather"`
	GasReserveMW float64 `json:"gas_reserve_mw"`
}

// DefaultScenarioID is used when a requested scenario does not exist.
const DefaultScenarioID = 1

var scenarios = []Scenario{
	{ID: 1, Name: "Normal Operation (Sunny, Noon)", Hour: 12, Weather: WeatherSunny, GasReserveMW: 500},
	{ID: 2, Name: "Night Crisis (No Solar, Low Wind)", Hour: 22, Weather: WeatherCloudy, GasReserveMW: 300},
	{ID: 3, Name: "Stormy Weather (High Wind, No Solar)", Hour: 14, Weather: WeatherStormy, GasReserveMW: 400},
	{ID: 4, Name: "Gas Depletion (Critical - Requires Load Shedding)", Hour: 10, Weather: WeatherSunny, GasReserveMW: 40},
	{ID: 5, Name: "Peak Demand (Evening High Load)", Hour: 19, Weather: WeatherCloudy, GasReserveMW: 500},
}

// Scenarios returns the scenario catalogue in menu order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// LookupScenario returns the scenario with the given id.
func LookupScenario(id int) (Scenario, error) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %d", ErrUnknownScenario, id)
}

// ScenarioOrDefault returns the scenario with the given id, falling back to
// scenario 1 for unknown ids.
func ScenarioOrDefault(id int) Scenario {
	s, err := LookupScenario(id)
	if err != nil {
		s, _ = LookupScenario(DefaultScenarioID)
	}
	return s
}

// Apply returns w reconfigured for the scenario. The base load is kept.
func (s Scenario) Apply(w WorldState) WorldState {
	w.CurrentHour = s.Hour
	w.Weather = s.Weather
	w.GasReserveMW = s.GasReserveMW
	return w
}
