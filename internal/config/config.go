package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
	Fleet      []AircraftConfig `toml:"fleet"`
	Generation GenerationConfig `toml:"generation"`
	WorkCards  WorkCardsConfig  `toml:"work_cards"`
	Alerts     AlertsConfig     `toml:"alerts"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	StaticFilesDir     string   `toml:"static_files_dir"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig represents the persistence configuration
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
}

// AircraftConfig represents one fleet aircraft reference record
type AircraftConfig struct {
	TailNumber         string `toml:"tail_number"`
	Model              string `toml:"model"`
	FlightHours        int    `toml:"flight_hours"`
	Cycles             int    `toml:"cycles"`
	Environment        string `toml:"environment"`
	LastInspectionDate string `toml:"last_inspection_date"`
	NextInspectionDue  string `toml:"next_inspection_due"`
}

// GenerationConfig represents the work card generation configuration
type GenerationConfig struct {
	// SourceType selects the text backend: "prediction" or "openai"
	SourceType     string `toml:"source_type"`
	WorkCardURL    string `toml:"work_card_url"`
	AdvisorURL     string `toml:"advisor_url"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// WorkCardsConfig represents the work card store configuration
type WorkCardsConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// AlertsConfig represents the compliance alert trigger configuration
type AlertsConfig struct {
	Enabled      bool `toml:"enabled"`
	DelaySeconds int  `toml:"delay_seconds"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			StaticFilesDir: "web",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			SQLitePath: "helimx.db",
		},
		Generation: GenerationConfig{
			SourceType:     "prediction",
			WorkCardURL:    "http://127.0.0.1:3000/api/v1/prediction/workcard",
			AdvisorURL:     "http://127.0.0.1:3000/api/v1/prediction/advisor",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		WorkCards: WorkCardsConfig{
			PollIntervalSeconds: 1,
		},
		Alerts: AlertsConfig{
			Enabled:      true,
			DelaySeconds: 2,
		},
	}
}

// Load reads the configuration from the given TOML file, applying defaults
// for any missing sections
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Generation.SourceType {
	case "prediction", "openai":
	default:
		return fmt.Errorf("unknown generation source type: %s", c.Generation.SourceType)
	}
	if c.WorkCards.PollIntervalSeconds <= 0 {
		c.WorkCards.PollIntervalSeconds = 1
	}
	return nil
}
