package grid

import "math"

// DispatchStatus is the outcome of applying a plan.
type DispatchStatus string

const (
	DispatchSuccess DispatchStatus = "SUCCESS"
	DispatchFailed  DispatchStatus = "FAILED"
)

// Risk grades the blackout risk after a dispatch.
type Risk string

const (
	RiskLow      Risk = "Low"
	RiskMedium   Risk = "Medium"
	RiskHigh     Risk = "High"
	RiskCritical Risk = "CRITICAL"
)

// FrequencyTolerance is the largest frequency deviation considered stable.
const FrequencyTolerance = 0.1

// Metrics are the grid stability figures returned by a dispatch.
type Metrics struct {
	Status             DispatchStatus `json:"status"`
	Error              string         `json:"error,omitempty"`
	ActualDemandMW     float64        `json:"actual_demand_mw,omitempty"`
	TotalSupplyMW      float64        `json:"total_supply_mw,omitempty"`
	LoadSheddingMW     float64        `json:"load_shedding_mw,omitempty"`
	FrequencyDeviation float64        `json:"frequency_deviation"`
	BlackoutRisk       Risk           `json:"blackout_risk"`
	Cost               float64        `json:"cost"`
	RemainingGas       float64        `json:"remaining_gas"`
}

// NeedsAdjustment reports whether the grid is unstable after the dispatch
// and the plan should be revised.
func (m Metrics) NeedsAdjustment() bool {
	if m.Status == DispatchFailed {
		return true
	}
	if m.BlackoutRisk == RiskHigh || m.BlackoutRisk == RiskCritical {
		return true
	}
	return math.Abs(m.FrequencyDeviation) > FrequencyTolerance
}
