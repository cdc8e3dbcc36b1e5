package types

// Sample is one record of the synthetic research dataset.
type Sample struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	GrowthRate  float64 `json:"growth_rate"`
}

// Data sufficiency labels.
const (
	SufficiencyLimited    = "limited"
	SufficiencySufficient = "sufficient"
)

// Temperature condition labels.
const (
	ConditionHigh     = "high"
	ConditionModerate = "moderate"
)

// Summary holds the descriptive statistics of the samples that meet the
// temperature threshold.
type Summary struct {
	Threshold float64 `json:"threshold"`

	// Total is the size of the full dataset; Count the size of the filtered subset.
	Total int `json:"total"`
	Count int `json:"count"`

	// HasData is false when no sample meets the threshold. The averages are
	// NaN in that case and are omitted from JSON.
	HasData bool `json:"has_data"`

	AvgGrowthRate  float64 `json:"-"`
	AvgHumidity    float64 `json:"-"`
	AvgTemperature float64 `json:"-"`

	// Correlation is the Pearson coefficient between temperature and growth
	// rate within the filtered subset. NaN with fewer than two samples.
	Correlation float64 `json:"-"`

	Sufficiency string `json:"sufficiency"`
	Condition   string `json:"condition"`
}
