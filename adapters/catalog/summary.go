package catalog

import (
	"github.com/montanaflynn/stats"

	"skyaudit/domain/core"
)

// ColumnSummary describes one numeric column.
type ColumnSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes mean, median, sample standard deviation and range.
func Describe(data []float64) (ColumnSummary, error) {
	var s ColumnSummary
	if len(data) == 0 {
		return s, core.ErrInsufficientData
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return s, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return s, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return s, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return s, err
	}

	// a single row has no spread
	var stdDev float64
	if len(data) > 1 {
		if stdDev, err = stats.StandardDeviationSample(data); err != nil {
			return s, err
		}
	}

	return ColumnSummary{Mean: mean, Median: median, StdDev: stdDev, Min: min, Max: max}, nil
}
