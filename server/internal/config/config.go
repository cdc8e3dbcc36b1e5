package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/growthlab/growthlab/server/internal/control"
	"github.com/growthlab/growthlab/server/internal/dataset"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort    = 8080
	DefaultLogLevel    = "info"
	DefaultSessionTTL  = 30 * time.Minute
	DefaultStreamEvery = 30 * time.Second
	DefaultChartWidth  = 10.0
	DefaultChartHeight = 6.0
	DefaultChartDPI    = 96
)

// Config is the full growthlab configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Dataset DatasetConfig  `yaml:"dataset"`
	Slider  control.Slider `yaml:"slider"`
	Chart   ChartConfig    `yaml:"chart"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// HTTPPort is the port the UI, API, stream and metrics listen on.
	HTTPPort int `yaml:"http_port" env:"GROWTHLAB_HTTP_PORT"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level" env:"GROWTHLAB_LOG_LEVEL"`

	// Auth configures the API key check on mutating requests.
	Auth AuthConfig `yaml:"auth"`

	// Session controls per-viewer slider state retention.
	Session SessionConfig `yaml:"session"`

	// StreamInterval is how often every stream client is re-sent its view,
	// which also keeps connected viewers' sessions from expiring. 0 disables.
	StreamInterval time.Duration `yaml:"stream_interval" env:"GROWTHLAB_STREAM_INTERVAL"`
}

// AuthConfig controls client authentication for slider updates.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode" env:"GROWTHLAB_AUTH_MODE"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// SessionConfig controls viewer session retention.
type SessionConfig struct {
	// TTL is how long an idle session keeps its slider value.
	TTL time.Duration `yaml:"ttl"`
}

// DatasetConfig wraps the generation parameters with environment overrides
// for the two values most often changed.
type DatasetConfig struct {
	dataset.Params `yaml:",inline"`

	SamplesOverride int    `yaml:"-" env:"GROWTHLAB_SAMPLES"`
	SeedOverride    uint64 `yaml:"-" env:"GROWTHLAB_SEED"`
}

// ChartConfig sets the rendered figure size.
type ChartConfig struct {
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
	DPI      int     `yaml:"dpi"`
}

// Load reads and parses the config file at path. An empty path yields the
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("growthlab config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("growthlab config: parse yaml: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("growthlab config: parse env: %w", err)
	}
	cfg.Dataset.applyOverrides()

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("growthlab config: %w", err)
	}
	return cfg, nil
}

func (d *DatasetConfig) applyOverrides() {
	if d.SamplesOverride != 0 {
		d.Samples = d.SamplesOverride
	}
	if d.SeedOverride != 0 {
		d.Seed = d.SeedOverride
	}
}

// SlogLevel maps LogLevel to a slog.Level.
func (s ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			LogLevel:       DefaultLogLevel,
			Session:        SessionConfig{TTL: DefaultSessionTTL},
			StreamInterval: DefaultStreamEvery,
		},
		Dataset: DatasetConfig{Params: dataset.DefaultParams()},
		Slider:  control.Default(),
		Chart: ChartConfig{
			WidthIn:  DefaultChartWidth,
			HeightIn: DefaultChartHeight,
			DPI:      DefaultChartDPI,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", cfg.Server.LogLevel)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Session.TTL <= 0 {
		return fmt.Errorf("server.session.ttl must be positive, got %v", cfg.Server.Session.TTL)
	}
	if cfg.Server.StreamInterval < 0 {
		return fmt.Errorf("server.stream_interval must not be negative, got %v", cfg.Server.StreamInterval)
	}
	if err := cfg.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if err := cfg.Slider.Validate(); err != nil {
		return err
	}
	if cfg.Chart.WidthIn <= 0 || cfg.Chart.HeightIn <= 0 {
		return fmt.Errorf("chart size %vx%v must be positive", cfg.Chart.WidthIn, cfg.Chart.HeightIn)
	}
	if cfg.Chart.DPI <= 0 {
		return fmt.Errorf("chart.dpi %d must be positive", cfg.Chart.DPI)
	}
	return nil
}
