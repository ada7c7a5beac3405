// Package config exposes strongly typed application configuration structs
// loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"news-trade-lab/internal/feature"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Storage selects and configures the persistence backends. Backend chooses
// where trades and summaries go; "memory" keeps everything in-process.
type Storage struct {
	Backend            string `yaml:"backend"` // "memory" | "db"
	PostgresDSN        string `yaml:"postgres_dsn"`
	ClickHouseDSN      string `yaml:"clickhouse_dsn"`
	ClickHouseDatabase string `yaml:"clickhouse_database"`
}

// News configures the headline archive client and its local snapshot.
type News struct {
	Endpoint     string `yaml:"endpoint"`
	SnapshotPath string `yaml:"snapshot_path"`
	MaxAgeHours  int    `yaml:"max_age_hours"`
}

// Binance configures raw trade acquisition.
type Binance struct {
	ArchiveDir string `yaml:"archive_dir"`
	StreamURL  string `yaml:"stream_url"`
}

// Backtest groups the tunable simulation knobs.
type Backtest struct {
	HorizonSeconds  int     `yaml:"horizon_seconds"`
	CooldownSeconds int     `yaml:"cooldown_seconds"`
	Strategy        string  `yaml:"strategy"` // "fixed_tp_sl" | "flow_ratio"
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	EMASpan         int     `yaml:"ema_span"`
	RatioThreshold  float64 `yaml:"ratio_threshold"`
}

// Config collects every configuration leaf for easy unmarshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Storage  Storage  `yaml:"storage"`
	News     News     `yaml:"news"`
	Binance  Binance  `yaml:"binance"`
	Backtest Backtest `yaml:"backtest"`

	// FeatureSpecPath points at the feature-spec YAML document loaded
	// separately via LoadFeatureSpec.
	FeatureSpecPath string `yaml:"feature_spec_path"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadFeatureSpec reads and validates a feature-spec YAML document.
func LoadFeatureSpec(path string) (*feature.Spec, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature spec: %w", err)
	}
	defer file.Close()

	var spec feature.Spec
	if err := yaml.NewDecoder(file).Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode feature spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
