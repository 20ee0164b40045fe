package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the lictl configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LICTL_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Directory configures the directory API connection.
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`

	// Retry controls how transient directory failures are retried.
	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Output controls the default rendering of command results.
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// DirectoryConfig configures the directory API connection.
type DirectoryConfig struct {
	// BaseURL is the directory API endpoint. Commands that talk to the
	// directory refuse to run without it; flags can still supply it
	// after loading, so it is not required here.
	// Example: https://directory.example.com
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url" yaml:"base_url"`

	// Token is the bearer token for API authentication.
	// Override: LICTL_DIRECTORY_TOKEN
	Token string `mapstructure:"token" yaml:"token,omitempty"`

	// Timeout bounds each directory API call.
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" validate:"omitempty,gt=0" yaml:"timeout"`
}

// RetryConfig controls the transient-failure retry on license calls.
type RetryConfig struct {
	// Attempts is the total number of tries per principal, including
	// the first. Default: 3
	Attempts int `mapstructure:"attempts" validate:"omitempty,min=1,max=10" yaml:"attempts"`

	// Delay is the fixed wait between tries. Default: 5s
	Delay time.Duration `mapstructure:"delay" validate:"omitempty,gt=0" yaml:"delay"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// OutputConfig controls the default rendering of command results.
type OutputConfig struct {
	// Format is the default output format for commands.
	// Valid values: table, json, yaml, csv
	Format string `mapstructure:"format" validate:"required,oneof=table json yaml csv" yaml:"format"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LICTL_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if configFileFound {
		if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Env-only overrides still apply without a config file; viper needs
	// the key registered before AutomaticEnv picks it up.
	if token := v.GetString("directory.token"); token != "" {
		cfg.Directory.Token = token
	}
	if baseURL := v.GetString("directory.base_url"); baseURL != "" {
		cfg.Directory.BaseURL = baseURL
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to the specified file path in
// YAML. Permissions are restricted because the file carries the API
// token.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config
// file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the LICTL_ prefix and underscores.
	// Example: LICTL_DIRECTORY_TOKEN=...
	v.SetEnvPrefix("LICTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing
// file is not an error; defaults and environment take over.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook converts strings like "30s" or "5m" into
// time.Duration so config files stay human-readable.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// the current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lictl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "lictl")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
