// Package grid models the simulated power grid the agent balances: a small
// mutable world record plus closed-form formulas for demand, generation
// capacity and the outcome of a dispatch.
package grid

// Weather is the coarse weather condition driving solar and wind output.
type Weather string

const (
	WeatherSunny  Weather = "sunny"
	WeatherCloudy Weather = "cloudy"
	WeatherStormy Weather = "stormy"
)

// IsValid reports whether w is a known condition.
func (w Weather) IsValid() bool {
	switch w {
	case WeatherSunny, WeatherCloudy, WeatherStormy:
		return true
	default:
		return false
	}
}

// Economic and physical constants of the simulation.
const (
	// GasCostPerMW is the operating cost of one MW of gas generation.
	GasCostPerMW = 100.0

	// MaxGasOutput caps gas generation per hour regardless of reserves.
	MaxGasOutput = 200.0

	// DefaultBaseLoad is the city's base consumption in MW.
	DefaultBaseLoad = 150.0

	// DefaultGasReserve is the fuel reserve at start-up in MW.
	DefaultGasReserve = 500.0

	// DefaultSeed makes stochastic noise reproducible across runs.
	DefaultSeed uint64 = 363251497
)

// WorldState is the ground truth of the environment. The agent only sees it
// through tool observations.
type WorldState struct {
	CurrentHour  int     `json:"current_hour"`
	Weather      Weather `json:"weather_condition"`
	GasReserveMW float64 `json:"gas_reserve_mw"`
	BaseLoadMW   float64 `json:"grid_load_base"`
}

// DefaultWorld returns the start-up world: noon, sunny, full reserves.
func DefaultWorld() WorldState {
	return WorldState{
		CurrentHour:  12,
		Weather:      WeatherSunny,
		GasReserveMW: DefaultGasReserve,
		BaseLoadMW:   DefaultBaseLoad,
	}
}
