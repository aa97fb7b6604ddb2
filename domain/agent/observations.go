package agent

import "github.com/felixgeelhaar/gridbalancer/domain/grid"

// Observations is what the agent has learned about the grid so far. It is
// the only view of the world the planner gets.
type Observations struct {
	ForecastMW   float64        `json:"forecast_mw"`
	Capacity     *grid.Capacity `json:"capacity,omitempty"`
	LastMetrics  *grid.Metrics  `json:"last_metrics,omitempty"`
	LastDemandMW float64        `json:"last_demand_mw,omitempty"`

	// ToolCalledInState is reset on every state change.
	ToolCalledInState bool `json:"tool_called_in_state"`

	Forecasts   int `json:"forecasts"`
	Dispatches  int `json:"dispatches"`
	Adjustments int `json:"adjustments"`
}

// RecordForecast stores a demand forecast.
func (o *Observations) RecordForecast(mw float64) {
	o.ForecastMW = mw
	o.Forecasts++
	o.ToolCalledInState = true
}

// RecordCapacity stores a capacity reading.
func (o *Observations) RecordCapacity(c grid.Capacity) {
	o.Capacity = &c
	o.ToolCalledInState = true
}

// RecordDispatch stores the metrics of a dispatch.
func (o *Observations) RecordDispatch(m grid.Metrics) {
	o.LastMetrics = &m
	if m.Status == grid.DispatchSuccess {
		o.LastDemandMW = m.ActualDemandMW
	}
	o.Dispatches++
	o.ToolCalledInState = true
}

// Unstable reports whether the last dispatch left the grid needing adjustment.
// Without a dispatch there is nothing to judge.
func (o Observations) Unstable() bool {
	return o.LastMetrics != nil && o.LastMetrics.NeedsAdjustment()
}
