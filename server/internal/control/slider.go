package control

import (
	"errors"
	"fmt"
	"math"
)

// Slider defaults.
const (
	DefaultStart = 15.0
	DefaultStop  = 35.0
	DefaultStep  = 1.0
	DefaultValue = 25.0
	DefaultLabel = "Temperature Threshold (°C):"
)

var (
	// ErrOutOfRange is returned by Set for values outside [Start, Stop].
	ErrOutOfRange = errors.New("slider value out of range")

	// ErrNotFinite is returned by Set for NaN or infinite values.
	ErrNotFinite = errors.New("slider value is not finite")
)

// Slider is a bounded numeric control. It is a value type: copies are independent.
type Slider struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
	Step  float64 `json:"step" yaml:"step"`
	Value float64 `json:"value" yaml:"value"`
	Label string  `json:"label" yaml:"label"`
}

// Default returns the temperature threshold slider (15–35, step 1, value 25).
func Default() Slider {
	return Slider{
		Start: DefaultStart,
		Stop:  DefaultStop,
		Step:  DefaultStep,
		Value: DefaultValue,
		Label: DefaultLabel,
	}
}

// New returns a validated Slider.
func New(start, stop, step, value float64, label string) (Slider, error) {
	s := Slider{Start: start, Stop: stop, Step: step, Value: value, Label: label}
	if err := s.Validate(); err != nil {
		return Slider{}, err
	}
	return s, nil
}

// Validate checks Start < Stop, Step > 0 and Start <= Value <= Stop.
func (s Slider) Validate() error {
	if !(s.Start < s.Stop) {
		return fmt.Errorf("slider: start %v must be below stop %v", s.Start, s.Stop)
	}
	if !(s.Step > 0) {
		return fmt.Errorf("slider: step %v must be positive", s.Step)
	}
	if s.Value < s.Start || s.Value > s.Stop {
		return fmt.Errorf("slider: value %v: %w [%v, %v]", s.Value, ErrOutOfRange, s.Start, s.Stop)
	}
	return nil
}

// Snap returns v rounded to the nearest step from Start, clamped to [Start, Stop].
func (s Slider) Snap(v float64) float64 {
	n := math.Round((v - s.Start) / s.Step)
	out := s.Start + n*s.Step
	if out > s.Stop {
		out = s.Stop
	}
	if out < s.Start {
		out = s.Start
	}
	return out
}

// Set validates v, snaps it to the step grid and stores it. It returns the
// stored value.
func (s *Slider) Set(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s.Value, ErrNotFinite
	}
	if v < s.Start || v > s.Stop {
		return s.Value, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, v, s.Start, s.Stop)
	}
	s.Value = s.Snap(v)
	return s.Value, nil
}

// Steps returns the number of positions on the slider.
func (s Slider) Steps() int {
	return int(math.Floor((s.Stop-s.Start)/s.Step)) + 1
}
