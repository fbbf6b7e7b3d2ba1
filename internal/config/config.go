package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// CheckpointConfig defines one recurring escalation checkpoint
type CheckpointConfig struct {
	Name     string `yaml:"name" validate:"required"`
	RRule    string `yaml:"rrule" validate:"required"`
	Severity string `yaml:"severity" validate:"required,oneof=warning critical"`
}

// EmailConfig enables Gmail delivery of critical alerts
type EmailConfig struct {
	CredentialsFile string `yaml:"credentialsFile" validate:"required"`
	TokenFile       string `yaml:"tokenFile" validate:"required"`
	Sender          string `yaml:"sender" validate:"required,email"`
	Recipient       string `yaml:"recipient" validate:"required,email"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`
	Timezone    string `yaml:"timezone" validate:"required"`

	// RolloverTime is the wall-clock "HH:MM" at which a new operational
	// date begins. Before it, duty records still belong to the previous
	// calendar day.
	RolloverTime string `yaml:"rolloverTime,omitempty"`

	Checkpoints []CheckpointConfig `yaml:"checkpoints" validate:"required,min=1,dive"`

	Email *EmailConfig `yaml:"email,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from sentinel_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.RolloverTime == "" {
		cfg.RolloverTime = "00:00"
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and the parts struct tags
// cannot express: timezone resolution, rrule syntax, rollover time
// format, and that checkpoints include at least one warning and one
// critical escalation.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	if _, err := time.Parse("15:04", cfg.RolloverTime); err != nil {
		return fmt.Errorf("invalid rolloverTime %q, expected HH:MM: %w", cfg.RolloverTime, err)
	}

	var hasWarning, hasCritical bool
	for i, cp := range cfg.Checkpoints {
		if _, err := rrule.StrToRRule(cp.RRule); err != nil {
			return fmt.Errorf("invalid rrule in checkpoints[%d] (%s): %w", i, cp.Name, err)
		}
		switch cp.Severity {
		case "warning":
			hasWarning = true
		case "critical":
			hasCritical = true
		}
	}
	if !hasWarning {
		return fmt.Errorf("config validation failed: checkpoints must include at least one warning checkpoint")
	}
	if !hasCritical {
		return fmt.Errorf("config validation failed: checkpoints must include at least one critical checkpoint")
	}

	return nil
}

// Location resolves the configured timezone. Validate has already
// checked it parses.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// findConfigFile searches for sentinel_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "sentinel_config.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
