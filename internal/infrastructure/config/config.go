// Package config loads deployment configuration for crewsched.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFile = "crewsched.yaml"

// Config holds deployment overrides for the scheduling thresholds and
// billing rates. Zero values mean "use the built-in default".
type Config struct {
	Database string `yaml:"database"` // path to the sqlite file

	Thresholds struct {
		MaxDailyHours     float64 `yaml:"max_daily_hours"`
		StandardWeekHours float64 `yaml:"standard_week_hours"`
		OverCapacityPct   float64 `yaml:"over_capacity_pct"`
		CriticalPeriodPct float64 `yaml:"critical_period_pct"`
	} `yaml:"thresholds"`

	Rates struct {
		ContractorHourly   float64 `yaml:"contractor_hourly"`
		BaseHourly         float64 `yaml:"base_hourly"`
		OvertimeMultiplier float64 `yaml:"overtime_multiplier"`
	} `yaml:"rates"`

	Webhooks []WebhookEndpoint `yaml:"webhooks"`
}

// WebhookEndpoint configures one alert delivery target.
type WebhookEndpoint struct {
	URL     string   `yaml:"url"`
	Secret  string   `yaml:"secret"`
	Enabled bool     `yaml:"enabled"`
	Types   []string `yaml:"types"` // conflict types to deliver; empty means all
}

// Load reads crewsched.yaml from root. A missing file is not an error;
// callers fall back to built-in defaults on a nil config.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config back to root.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, configFile), data, 0600)
}
