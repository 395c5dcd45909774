package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProfileFlagsEnvVar is the environment variable carrying the shared build
// flags. Its value, when set, overrides the config file and is forwarded
// verbatim to every build invocation.
const ProfileFlagsEnvVar = "CARGO_PROFILE_FLAGS"

// HistoryConfig represents build history configuration
type HistoryConfig struct {
	// Enabled enables recording runs in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// Config represents suzuka-build configuration options
type Config struct {
	// CargoPath is the path to the cargo binary
	CargoPath string `yaml:"cargo_path"`

	// ProfileFlags is the shared flags string applied to every invocation
	ProfileFlags string `yaml:"profile_flags"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// History contains build history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		CargoPath:    "cargo",
		ProfileFlags: "",
		LogLevel:     "info",
		LogDir:       filepath.Join(".suzuka-build", "logs"),
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(".suzuka-build", "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if fileCfg.CargoPath != "" {
		cfg.CargoPath = fileCfg.CargoPath
	}
	if fileCfg.ProfileFlags != "" {
		cfg.ProfileFlags = fileCfg.ProfileFlags
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}

	// The history section needs presence detection: "enabled: false" must
	// not be clobbered by the default true.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			historyMap, _ := historySection.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .suzuka-build/config.yaml in the
// specified directory. If the directory or file doesn't exist, returns
// default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".suzuka-build", "config.yaml")
	return LoadConfig(configPath)
}

// ApplyEnv applies environment-sourced values on top of the loaded
// configuration. The profile flags variable wins over the config file so a
// CI environment can switch build profiles without editing files.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(ProfileFlagsEnvVar); ok {
		c.ProfileFlags = v
	}
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration and environment values.
func (c *Config) MergeWithFlags(cargoPath *string, profileFlags *string, logDir *string, logLevel *string) {
	if cargoPath != nil {
		c.CargoPath = *cargoPath
	}
	if profileFlags != nil {
		c.ProfileFlags = *profileFlags
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.CargoPath == "" {
		return fmt.Errorf("cargo_path cannot be empty")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
