package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete lokonvert configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LOKONVERT_*, dots become underscores,
//     so logging.level is LOKONVERT_LOGGING_LEVEL)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// InstallPath pins the LibreOffice installation directory.
	// Empty means discover one from the usual system locations.
	InstallPath string `mapstructure:"install_path" yaml:"install_path"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Convert holds the default conversion parameters. Flags override them.
	Convert ConvertConfig `mapstructure:"convert" yaml:"convert"`

	// Cache configures the conversion cache that skips unchanged inputs
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Passwords maps document URLs to the password to supply when the
	// engine prompts for that URL during loading.
	Passwords map[string]string `mapstructure:"passwords" yaml:"passwords,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`

	// Format specifies the log output format
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=console json"`
}

// ConvertConfig holds conversion defaults.
type ConvertConfig struct {
	// Format is the target format passed to the engine (pdf, docx, ...)
	Format string `mapstructure:"format" yaml:"format" validate:"required"`

	// Filter is an optional filter-option string for the export filter,
	// for example "SelectPdfVersion=1".
	Filter string `mapstructure:"filter" yaml:"filter,omitempty"`

	// IsolateProfile runs the engine against a throwaway user profile
	// directory instead of the shared default one.
	IsolateProfile bool `mapstructure:"isolate_profile" yaml:"isolate_profile"`
}

// CacheConfig configures the badger-backed conversion cache.
type CacheConfig struct {
	// Enabled turns the cache on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the cache database directory
	Path string `mapstructure:"path" yaml:"path"`

	// Options holds badger tuning knobs, decoded by the cache itself
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"`
}

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load reads configuration from an optional YAML file plus LOKONVERT_*
// environment variables, applies defaults, and validates the result.
//
// An empty configPath searches the default location
// ($XDG_CONFIG_HOME/lokonvert, then ~/.config/lokonvert); a missing file
// there is fine and defaults apply. An explicit path that cannot be read
// is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setupViper configures environment binding and the config file search.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("LOKONVERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Search-path mode reports a missing file as
		// ConfigFileNotFoundError; defaults cover that case. An explicit
		// file that fails to read is a real problem.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// configDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func configDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lokonvert")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "lokonvert")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// applyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Convert.Format == "" {
		cfg.Convert.Format = "pdf"
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = filepath.Join(configDir(), "cache")
	}
}

// Validate validates the configuration using struct tags and custom rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Password URLs must be absolute so they can match prompt payloads.
	for url := range cfg.Passwords {
		if !strings.Contains(url, "://") {
			return fmt.Errorf("passwords: key %q is not a URL (expected file:// or similar)", url)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}

// WriteDefaultConfig writes a commented default configuration file to
// path, creating parent directories as needed. It refuses to overwrite
// an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	cfg := Config{}
	applyDefaults(&cfg)

	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	header := "# lokonvert configuration file\n" +
		"# Environment variables override these values (LOKONVERT_LOGGING_LEVEL, ...).\n\n"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(header), body...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
