package dataset

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/growthlab/growthlab/pkg/types"
)

// Default generation parameters.
const (
	DefaultSamples = 100
	DefaultSeed    = 42

	DefaultTempMin = 15.0
	DefaultTempMax = 35.0

	DefaultHumidityIntercept = 70.0
	DefaultHumiditySlope     = -0.8
	DefaultHumidityNoise     = 5.0

	DefaultGrowthTempCoef     = 2.5
	DefaultGrowthHumidityCoef = -0.3
	DefaultGrowthNoise        = 10.0
)

// MaxSamples caps the dataset size; every view filters the whole dataset.
const MaxSamples = 1_000_000

// Params controls the shape of the generated dataset.
type Params struct {
	Samples int    `yaml:"samples"`
	Seed    uint64 `yaml:"seed"`

	TempMin float64 `yaml:"temp_min"`
	TempMax float64 `yaml:"temp_max"`

	// humidity = HumidityIntercept + HumiditySlope*temperature + N(0, HumidityNoise)
	HumidityIntercept float64 `yaml:"humidity_intercept"`
	HumiditySlope     float64 `yaml:"humidity_slope"`
	HumidityNoise     float64 `yaml:"humidity_noise"`

	// growth = GrowthTempCoef*temperature + GrowthHumidityCoef*humidity + N(0, GrowthNoise)
	GrowthTempCoef     float64 `yaml:"growth_temp_coef"`
	GrowthHumidityCoef float64 `yaml:"growth_humidity_coef"`
	GrowthNoise        float64 `yaml:"growth_noise"`
}

// DefaultParams returns the parameters of the reference dataset.
func DefaultParams() Params {
	return Params{
		Samples:            DefaultSamples,
		Seed:               DefaultSeed,
		TempMin:            DefaultTempMin,
		TempMax:            DefaultTempMax,
		HumidityIntercept:  DefaultHumidityIntercept,
		HumiditySlope:      DefaultHumiditySlope,
		HumidityNoise:      DefaultHumidityNoise,
		GrowthTempCoef:     DefaultGrowthTempCoef,
		GrowthHumidityCoef: DefaultGrowthHumidityCoef,
		GrowthNoise:        DefaultGrowthNoise,
	}
}

// Validate checks the structural constraints on p.
func (p Params) Validate() error {
	if p.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", p.Samples)
	}
	if p.Samples > MaxSamples {
		return fmt.Errorf("samples %d exceeds the limit of %d", p.Samples, MaxSamples)
	}
	if p.TempMin >= p.TempMax {
		return fmt.Errorf("temp_min %.2f must be below temp_max %.2f", p.TempMin, p.TempMax)
	}
	if p.HumidityNoise < 0 || p.GrowthNoise < 0 {
		return errors.New("noise standard deviations must not be negative")
	}
	return nil
}

// Dataset is an ordered, immutable set of samples.
type Dataset struct {
	Params  Params
	Samples []types.Sample
}

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.Samples) }

// Columns returns the dataset as three parallel slices.
func (d Dataset) Columns() (temperature, humidity, growth []float64) {
	temperature = make([]float64, len(d.Samples))
	humidity = make([]float64, len(d.Samples))
	growth = make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		temperature[i] = s.Temperature
		humidity[i] = s.Humidity
		growth[i] = s.GrowthRate
	}
	return temperature, humidity, growth
}

// Generate draws a dataset from p.
func Generate(p Params) (Dataset, error) {
	if err := p.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("dataset: %w", err)
	}

	src := rand.NewPCG(p.Seed, p.Seed)
	temp := distuv.Uniform{Min: p.TempMin, Max: p.TempMax, Src: src}
	humNoise := distuv.Normal{Mu: 0, Sigma: p.HumidityNoise, Src: src}
	growthNoise := distuv.Normal{Mu: 0, Sigma: p.GrowthNoise, Src: src}

	samples := make([]types.Sample, p.Samples)
	for i := range samples {
		samples[i].Temperature = temp.Rand()
	}
	for i := range samples {
		samples[i].Humidity = p.HumidityIntercept + p.HumiditySlope*samples[i].Temperature + humNoise.Rand()
	}
	for i := range samples {
		s := &samples[i]
		s.GrowthRate = p.GrowthTempCoef*s.Temperature + p.GrowthHumidityCoef*s.Humidity + growthNoise.Rand()
	}

	return Dataset{Params: p, Samples: samples}, nil
}
