// Package config loads service settings from defaults, an optional YAML file
// and SSI_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"switching-insights-go/internal/governance"
)

var ErrInvalidThresholds = governance.ErrInvalidThresholds

const EnvPrefix = "SSI"

type Server struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// Data points at the per-product extracts. A URL, when set, wins over the
// local path.
type Data struct {
	MotorPath string `mapstructure:"motor_path" yaml:"motor_path"`
	HomePath  string `mapstructure:"home_path" yaml:"home_path"`
	MotorURL  string `mapstructure:"motor_url" yaml:"motor_url"`
	HomeURL   string `mapstructure:"home_url" yaml:"home_url"`
}

type Governance struct {
	governance.Thresholds `mapstructure:",squash" yaml:",inline"`
	DevMode               bool `mapstructure:"dev_mode" yaml:"dev_mode"`
}

type Flow struct {
	TopN int `mapstructure:"top_n" yaml:"top_n"`
}

type Proxy struct {
	MinSample int `mapstructure:"min_sample" yaml:"min_sample"`
}

type Filter struct {
	TimeWindowMonths int `mapstructure:"time_window_months" yaml:"time_window_months"`
}

type Intervals struct {
	Confidence    float64 `mapstructure:"confidence" yaml:"confidence"`
	PriorStrength float64 `mapstructure:"prior_strength" yaml:"prior_strength"`
}

type Fetch struct {
	MaxElapsedSec int `mapstructure:"max_elapsed_sec" yaml:"max_elapsed_sec"`
	TimeoutSec    int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

type Config struct {
	Server     Server     `mapstructure:"server" yaml:"server"`
	Data       Data       `mapstructure:"data" yaml:"data"`
	Governance Governance `mapstructure:"governance" yaml:"governance"`
	Flow       Flow       `mapstructure:"flow" yaml:"flow"`
	Proxy      Proxy      `mapstructure:"proxy" yaml:"proxy"`
	Filter     Filter     `mapstructure:"filter" yaml:"filter"`
	Intervals  Intervals  `mapstructure:"intervals" yaml:"intervals"`
	Fetch      Fetch      `mapstructure:"fetch" yaml:"fetch"`
}

func setDefaults(v *viper.Viper) {
	t := governance.DefaultThresholds()

	v.SetDefault("server.port", 8080)

	v.SetDefault("data.motor_path", "data/motor.csv")
	v.SetDefault("data.home_path", "data/home.csv")
	v.SetDefault("data.motor_url", "")
	v.SetDefault("data.home_url", "")

	v.SetDefault("governance.publishable", t.Publishable)
	v.SetDefault("governance.indicative", t.Indicative)
	v.SetDefault("governance.suppressed_below", t.SuppressedBelow)
	v.SetDefault("governance.dev_override", 0)
	v.SetDefault("governance.dev_mode", false)
	v.SetDefault("governance.min_market_base", t.MinMarketBase)
	v.SetDefault("governance.flow_cell_min", t.FlowCellMin)
	v.SetDefault("governance.eligible_insurers_warning", t.EligibleInsurersWarning)

	v.SetDefault("flow.top_n", 8)
	v.SetDefault("proxy.min_sample", 10)
	v.SetDefault("filter.time_window_months", 24)

	v.SetDefault("intervals.confidence", 0.95)
	v.SetDefault("intervals.prior_strength", 20.0)

	// Fetch defaults
	v.SetDefault("fetch.max_elapsed_sec", 20)
	v.SetDefault("fetch.timeout_sec", 15)
}

// Load reads configuration with precedence env > config file > defaults.
// A missing cfgFile is not an error; an unreadable or malformed one is.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := c.Governance.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Governance.DevMode && c.Governance.DevOverride <= 0 {
		return fmt.Errorf("%w: dev_mode requires a positive dev_override", ErrInvalidThresholds)
	}
	if c.Flow.TopN < 0 {
		return fmt.Errorf("flow.top_n must not be negative, got %d", c.Flow.TopN)
	}
	if c.Proxy.MinSample < 0 {
		return fmt.Errorf("proxy.min_sample must not be negative, got %d", c.Proxy.MinSample)
	}
	if c.Filter.TimeWindowMonths < 0 {
		return fmt.Errorf("filter.time_window_months must not be negative, got %d", c.Filter.TimeWindowMonths)
	}
	if c.Intervals.Confidence <= 0 || c.Intervals.Confidence >= 1 {
		return fmt.Errorf("intervals.confidence must be in (0,1), got %g", c.Intervals.Confidence)
	}
	if c.Intervals.PriorStrength < 0 {
		return fmt.Errorf("intervals.prior_strength must not be negative, got %g", c.Intervals.PriorStrength)
	}
	return nil
}

// Engine builds the governance engine. The dev override only applies when
// dev_mode is set.
func (c *Config) Engine() (*governance.Engine, error) {
	if c.Governance.DevMode {
		return governance.NewDevelopment(c.Governance.Thresholds)
	}
	return governance.New(c.Governance.Thresholds)
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

func (c *Config) FetchMaxElapsed() time.Duration {
	return time.Duration(c.Fetch.MaxElapsedSec) * time.Second
}

// Render returns the effective configuration as YAML.
func Render(c *Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Save writes the configuration to path.
func Save(c *Config, path string) error {
	b, err := Render(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
