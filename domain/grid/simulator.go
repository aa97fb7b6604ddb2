package grid

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// Capacity is the generation available this hour, in MW.
type Capacity struct {
	Solar      float64 `json:"solar"`
	Wind       float64 `json:"wind"`
	Gas        float64 `json:"gas"`
	GasReserve float64 `json:"gas_reserve"`
}

// Total returns the sum of dispatchable generation.
func (c Capacity) Total() float64 {
	return c.Solar + c.Wind + c.Gas
}

// Plan is a dispatch decision in MW per source. LoadShedding is demand the
// operator deliberately leaves unserved.
type Plan struct {
	Solar        float64 `json:"solar"`
	Wind         float64 `json:"wind"`
	Gas          float64 `json:"gas"`
	LoadShedding float64 `json:"load_shedding"`
}

// Generation returns the MW the plan asks generators to produce.
func (p Plan) Generation() float64 {
	return p.Solar + p.Wind + p.Gas
}

// Validate rejects negative or non-finite amounts.
func (p Plan) Validate() error {
	for name, v := range map[string]float64{
		"solar":         p.Solar,
		"wind":          p.Wind,
		"gas":           p.Gas,
		"load_shedding": p.LoadShedding,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidPlan, name, v)
		}
	}
	return nil
}

// Simulator owns the world record and the seeded noise source. It is safe
// for concurrent use.
type Simulator struct {
	mu    sync.Mutex
	world WorldState
	seed  uint64
	rng   *rand.Rand
}

// NewSimulator creates a simulator in the default world.
func NewSimulator(seed uint64) *Simulator {
	return &Simulator{
		world: DefaultWorld(),
		seed:  seed,
		rng:   newRand(seed),
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Reset reconfigures the world for a scenario and reseeds the noise source
// so every run of a scenario sees the same sequence.
func (s *Simulator) Reset(sc Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.world = sc.Apply(DefaultWorld())
	s.rng = newRand(s.seed)
}

// World returns a snapshot of the world record.
func (s *Simulator) World() WorldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world
}

// Seed returns the seed used on every reset.
func (s *Simulator) Seed() uint64 {
	return s.seed
}

// Forecast predicts demand in MW for hourOffset hours from now. Negative
// offsets look back; the target hour wraps around the day either way.
func (s *Simulator) Forecast(hourOffset int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecastLocked(hourOffset)
}

func (s *Simulator) forecastLocked(hourOffset int) float64 {
	target := ((s.world.CurrentHour+hourOffset)%24 + 24) % 24
	demand := s.world.BaseLoadMW * loadMultiplier(target)
	return round(demand+s.uniform(-5, 5), 2)
}

// loadMultiplier models the daily load curve.
func loadMultiplier(hour int) float64 {
	switch {
	case hour <= 6:
		return 0.5
	case hour <= 16:
		return 1.2
	case hour <= 21:
		return 2.0
	default:
		return 1.0
	}
}

// Capacity reports the generation available at the current hour.
func (s *Simulator) Capacity() Capacity {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := s.world.CurrentHour

	solar := 0.0
	if hour >= 6 && hour <= 18 {
		base := 30.0
		if s.world.Weather == WeatherSunny {
			base = 100.0
		}
		solar = base * (1 - math.Abs(float64(hour-12))/6)
	}

	var wind float64
	if s.world.Weather == WeatherStormy {
		wind = s.uniform(80, 120)
	} else {
		wind = s.uniform(10, 50)
	}

	return Capacity{
		Solar:      round(math.Max(0, solar), 2),
		Wind:       round(wind, 2),
		Gas:        round(math.Min(MaxGasOutput, s.world.GasReserveMW), 2),
		GasReserve: round(s.world.GasReserveMW, 2),
	}
}

// Dispatch applies a plan to the grid. A plan asking for more gas than the
// reserve holds fails without changing the world; otherwise the reserve is
// drawn down and the clock advances one hour.
func (s *Simulator) Dispatch(p Plan) (Metrics, error) {
	if err := p.Validate(); err != nil {
		return Metrics{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actual := s.forecastLocked(0)

	if p.Gas > s.world.GasReserveMW {
		return Metrics{
			Status:       DispatchFailed,
			Error:        "Insufficient gas reserves",
			BlackoutRisk: RiskCritical,
			RemainingGas: round(s.world.GasReserveMW, 2),
		}, nil
	}

	s.world.GasReserveMW -= p.Gas
	s.world.CurrentHour = (s.world.CurrentHour + 1) % 24

	supply := p.Generation()
	// Shedding cannot cut more load than there is.
	served := math.Max(0, actual-p.LoadShedding)
	diff := supply - served

	return Metrics{
		Status:             DispatchSuccess,
		ActualDemandMW:     actual,
		TotalSupplyMW:      round(supply, 2),
		LoadSheddingMW:     round(p.LoadShedding, 2),
		FrequencyDeviation: round(diff*0.001, 4),
		BlackoutRisk:       riskFor(diff),
		Cost:               round(p.Gas*GasCostPerMW, 2),
		RemainingGas:       round(s.world.GasReserveMW, 2),
	}, nil
}

func riskFor(diff float64) Risk {
	switch d := math.Abs(diff); {
	case d > 50:
		return RiskHigh
	case d > 20:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
