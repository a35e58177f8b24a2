// Package cmd provides the command-line interface for gatesmith with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --gates-dir, etc.) - highest priority
//	2. GATESMITH_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (GATESMITH_GATES_DIR, etc.)
//	4. Configuration files (.gatesmith.yml) - lowest priority
//
// Environment Variables:
//
//	GATESMITH_CONFIG_FILE: Path to custom configuration file
//	GATESMITH_GATES_DIR: Override the gate directory
//	GATESMITH_ECONOMY_USECOST: Override the default use cost
//	GATESMITH_LOGGING_LEVEL: Override the log level
//	And more following the GATESMITH_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/gatesmith/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gatesmith",
	Short: "Define, validate and match portal gate templates",
	Long: `Gatesmith manages gate templates: small text diagrams that describe which
blocks, at which offsets, form a valid portal frame.

Key Features:
  • Template parsing, validation and canonical rewriting
  • Structural matching against captured worlds in any orientation
  • Built-in default gates for fresh gate directories
  • Region files (YAML, optionally zstd compressed) and SQLite worlds
  • Hot reload of the gate directory

Quick Start:
  gatesmith defaults              Write the built-in gates
  gatesmith list                  List all loaded gates
  gatesmith validate              Validate every gate file
  gatesmith match nethergate.gate --world region.yaml --origin 0,64,0 --any

Command Aliases (for faster typing):
  list (l), validate (v), match (m), watch (w)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .gatesmith.yml, can also use GATESMITH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("gates-dir", "", "directory holding the gate files")
	rootCmd.PersistentFlags().String("catalog", "", "block catalog file (default is the built-in catalog)")

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("gates.dir", rootCmd.PersistentFlags().Lookup("gates-dir"))
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. GATESMITH_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .gatesmith.yml in current directory
//
// Every configuration key can also be set through the environment with the
// GATESMITH_ prefix, dots replaced by underscores (GATESMITH_GATES_DIR=./portals).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("GATESMITH_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gatesmith")
	}

	viper.SetEnvPrefix("GATESMITH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.BindEnv(viper.GetViper())

	// A missing or unreadable file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
