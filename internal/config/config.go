// Package config provides configuration management for gatesmith using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the GATESMITH_ prefix, and validation. It covers the gate directory, the
// block catalog, the global economy defaults gates inherit, matching options,
// logging and the watch loop.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/logging"
)

// Defaults applied when a value is not configured.
const (
	DefaultGatesDir      = "./gates"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultWatchDebounce = 250 * time.Millisecond
)

type Config struct {
	Gates    GatesConfig    `mapstructure:"gates" yaml:"gates"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Economy  EconomyConfig  `mapstructure:"economy" yaml:"economy"`
	Matching MatchingConfig `mapstructure:"matching" yaml:"matching"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
}

type GatesConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	Extension string `mapstructure:"extension" yaml:"extension"`
}

// CatalogConfig points at a block catalog file. An empty path selects the
// built-in catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// EconomyConfig holds the global costs a gate inherits when its file does not
// set them. It implements gate.EconomyDefaults.
type EconomyConfig struct {
	Use      int  `mapstructure:"usecost" yaml:"usecost"`
	Create   int  `mapstructure:"createcost" yaml:"createcost"`
	Destroy  int  `mapstructure:"destroycost" yaml:"destroycost"`
	PayOwner bool `mapstructure:"toowner" yaml:"toowner"`
}

type MatchingConfig struct {
	StrictEntrance bool `mapstructure:"strict_entrance" yaml:"strict_entrance"`
	IgnoreEntrance bool `mapstructure:"ignore_entrance" yaml:"ignore_entrance"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

var _ gate.EconomyDefaults = EconomyConfig{}

func (e EconomyConfig) UseCost() int     { return e.Use }
func (e EconomyConfig) CreateCost() int  { return e.Create }
func (e EconomyConfig) DestroyCost() int { return e.Destroy }
func (e EconomyConfig) ToOwner() bool    { return e.PayOwner }

// Keys lists every configuration key. Binding them lets AutomaticEnv
// overrides reach Unmarshal.
func Keys() []string {
	return []string{
		"gates.dir",
		"gates.extension",
		"catalog.path",
		"economy.usecost",
		"economy.createcost",
		"economy.destroycost",
		"economy.toowner",
		"matching.strict_entrance",
		"matching.ignore_entrance",
		"logging.level",
		"logging.format",
		"watch.debounce",
	}
}

// BindEnv binds every key in Keys to its GATESMITH_ environment variable.
func BindEnv(v *viper.Viper) {
	for _, key := range Keys() {
		_ = v.BindEnv(key)
	}
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Apply default values for GatesConfig if not set
	if config.Gates.Dir == "" {
		config.Gates.Dir = DefaultGatesDir
	}
	if config.Gates.Extension == "" {
		config.Gates.Extension = gate.FileExtension
	}
	if !strings.HasPrefix(config.Gates.Extension, ".") {
		config.Gates.Extension = "." + config.Gates.Extension
	}

	// Strict entrance checking is on unless explicitly disabled
	if !v.IsSet("matching.strict_entrance") {
		config.Matching.StrictEntrance = true
	}

	// Apply default values for LoggingConfig if not set
	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = DefaultLogFormat
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultWatchDebounce
	}

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// MatchOptions converts the matching section into gate match options.
func (c *Config) MatchOptions() gate.MatchOptions {
	return gate.MatchOptions{
		Creating:       !c.Matching.StrictEntrance,
		IgnoreEntrance: c.Matching.IgnoreEntrance,
	}
}

// LoggerConfig converts the logging section into a logger configuration.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		lc.Level = level
	}
	lc.Format = strings.ToLower(c.Logging.Format)
	return lc
}

// LoadCatalog returns the configured block catalog.
func (c *Config) LoadCatalog() (*blocks.Catalog, error) {
	if c.Catalog.Path == "" {
		return blocks.DefaultCatalog(), nil
	}
	return blocks.LoadCatalogFile(c.Catalog.Path)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateGatesConfig(&config.Gates); err != nil {
		return invalid("gates config", err)
	}

	if err := validateEconomyConfig(&config.Economy); err != nil {
		return invalid("economy config", err)
	}

	if err := validateLoggingConfig(&config.Logging); err != nil {
		return invalid("logging config", err)
	}

	if config.Watch.Debounce < 0 {
		return invalid("watch config", fmt.Errorf("debounce %s is negative", config.Watch.Debounce))
	}

	return nil
}

func validateGatesConfig(config *GatesConfig) error {
	if err := validatePath(config.Dir); err != nil {
		return fmt.Errorf("invalid gate directory '%s': %w", config.Dir, err)
	}

	if strings.ContainsAny(config.Extension, `/\`) || config.Extension == "." {
		return fmt.Errorf("invalid extension %q", config.Extension)
	}

	return nil
}

func validateEconomyConfig(config *EconomyConfig) error {
	costs := []struct {
		name  string
		value int
	}{
		{"usecost", config.Use},
		{"createcost", config.Create},
		{"destroycost", config.Destroy},
	}
	for _, cost := range costs {
		if cost.value < 0 {
			return fmt.Errorf("%s %d is negative", cost.name, cost.value)
		}
	}
	return nil
}

func validateLoggingConfig(config *LoggingConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}

	switch strings.ToLower(config.Format) {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}
}

// validatePath validates a directory path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	// Clean the path
	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func invalid(section string, err error) error {
	return &gerrors.GateError{
		Kind:    gerrors.KindInvalidConfig,
		Message: section,
		Cause:   err,
		Fatal:   true,
	}
}
