package api

import (
	"math"

	"github.com/growthlab/growthlab/pkg/types"
	"github.com/growthlab/growthlab/server/internal/control"
)

// DatasetResponse is the payload for GET /api/v1/dataset.
type DatasetResponse struct {
	Count   int            `json:"count"`
	Seed    uint64         `json:"seed"`
	Samples []types.Sample `json:"samples"`
}

// SliderResponse is the payload for GET and PUT /api/v1/slider.
type SliderResponse struct {
	Session string  `json:"session"`
	Label   string  `json:"label"`
	Start   float64 `json:"start"`
	Stop    float64 `json:"stop"`
	Step    float64 `json:"step"`
	Value   float64 `json:"value"`
}

// SliderRequest is the body of PUT /api/v1/slider.
type SliderRequest struct {
	Value *float64 `json:"value"`
}

// SummaryResponse is the payload for GET /api/v1/summary. Averages are null
// when no sample meets the threshold.
type SummaryResponse struct {
	Threshold      float64  `json:"threshold"`
	Total          int      `json:"total"`
	Count          int      `json:"count"`
	HasData        bool     `json:"has_data"`
	AvgGrowthRate  *float64 `json:"avg_growth_rate"`
	AvgHumidity    *float64 `json:"avg_humidity"`
	AvgTemperature *float64 `json:"avg_temperature"`
	Correlation    *float64 `json:"correlation"`
	Sufficiency    string   `json:"sufficiency"`
	Condition      string   `json:"condition"`
}

// FilteredResponse is the payload for GET /api/v1/filtered.
type FilteredResponse struct {
	Threshold float64        `json:"threshold"`
	Count     int            `json:"count"`
	Samples   []types.Sample `json:"samples"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data of
// every WebSocket view message.
type SnapshotResponse struct {
	Slider      SliderResponse  `json:"slider"`
	Summary     SummaryResponse `json:"summary"`
	Markdown    string          `json:"markdown"`
	HTML        string          `json:"html"`
	PlotURL     string          `json:"plot_url"`
	GeneratedAt string          `json:"generated_at"` // RFC3339
}

// SessionResponse is one entry in GET /api/v1/sessions.
type SessionResponse struct {
	Session  string  `json:"session"`
	Value    float64 `json:"value"`
	LastSeen string  `json:"last_seen"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func toSliderResponse(id string, s control.Slider) SliderResponse {
	return SliderResponse{
		Session: id,
		Label:   s.Label,
		Start:   s.Start,
		Stop:    s.Stop,
		Step:    s.Step,
		Value:   s.Value,
	}
}

func toSummaryResponse(s types.Summary) SummaryResponse {
	return SummaryResponse{
		Threshold:      s.Threshold,
		Total:          s.Total,
		Count:          s.Count,
		HasData:        s.HasData,
		AvgGrowthRate:  finite(s.AvgGrowthRate),
		AvgHumidity:    finite(s.AvgHumidity),
		AvgTemperature: finite(s.AvgTemperature),
		Correlation:    finite(s.Correlation),
		Sufficiency:    s.Sufficiency,
		Condition:      s.Condition,
	}
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
