package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/growthlab/growthlab/pkg/types"
)

// Thresholds that label a summary.
const (
	// LimitedDataBelow is the filtered count under which data is "limited".
	LimitedDataBelow = 20

	// HighTemperatureAbove is the threshold above which conditions are "high".
	HighTemperatureAbove = 25.0
)

// Filter returns the samples whose temperature is at least threshold.
// The result never aliases samples.
func Filter(samples []types.Sample, threshold float64) []types.Sample {
	out := make([]types.Sample, 0, len(samples))
	for _, s := range samples {
		if s.Temperature >= threshold {
			out = append(out, s)
		}
	}
	return out
}

// Summarize computes the summary of filtered, which was selected from a
// dataset of total samples at the given threshold.
func Summarize(threshold float64, total int, filtered []types.Sample) types.Summary {
	sum := types.Summary{
		Threshold:      threshold,
		Total:          total,
		Count:          len(filtered),
		HasData:        len(filtered) > 0,
		AvgGrowthRate:  math.NaN(),
		AvgHumidity:    math.NaN(),
		AvgTemperature: math.NaN(),
		Correlation:    math.NaN(),
		Sufficiency:    sufficiency(len(filtered)),
		Condition:      condition(threshold),
	}
	if !sum.HasData {
		return sum
	}

	temp := make([]float64, len(filtered))
	hum := make([]float64, len(filtered))
	growth := make([]float64, len(filtered))
	for i, s := range filtered {
		temp[i], hum[i], growth[i] = s.Temperature, s.Humidity, s.GrowthRate
	}

	sum.AvgGrowthRate = stat.Mean(growth, nil)
	sum.AvgHumidity = stat.Mean(hum, nil)
	sum.AvgTemperature = stat.Mean(temp, nil)
	if len(filtered) > 1 {
		sum.Correlation = stat.Correlation(temp, growth, nil)
	}
	return sum
}

// Analyze filters samples at threshold and summarizes the result.
func Analyze(samples []types.Sample, threshold float64) ([]types.Sample, types.Summary) {
	filtered := Filter(samples, threshold)
	return filtered, Summarize(threshold, len(samples), filtered)
}

func sufficiency(count int) string {
	if count < LimitedDataBelow {
		return types.SufficiencyLimited
	}
	return types.SufficiencySufficient
}

func condition(threshold float64) string {
	if threshold > HighTemperatureAbove {
		return types.ConditionHigh
	}
	return types.ConditionModerate
}
