package telemetry

import (
	"sort"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// CounterTotal is the summed value of one counter across all attribute sets.
type CounterTotal struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

// Totals sums every int64 counter in rm, sorted by instrument name.
func Totals(rm metricdata.ResourceMetrics) []CounterTotal {
	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || !sum.IsMonotonic {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}

	out := make([]CounterTotal, 0, len(sums))
	for name, total := range sums {
		out = append(out, CounterTotal{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Total returns the summed value of the named counter, or 0 when absent.
func Total(rm metricdata.ResourceMetrics, name string) int64 {
	for _, ct := range Totals(rm) {
		if ct.Name == name {
			return ct.Total
		}
	}
	return 0
}
