// Package cmd provides the command-line interface for stamp with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --level, etc.) - highest priority
//	2. STAMP_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (STAMP_DIST, STAMP_SUBSTITUTION_STRICT, etc.)
//	4. Configuration files (.stamp.yml) - lowest priority
//
// Environment Variables:
//
//	STAMP_CONFIG_FILE: Path to custom configuration file
//	STAMP_SRC: Override the library source file
//	STAMP_METADATA_PRIMARY: Override the primary metadata file
//	And more following the STAMP_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/stamp/internal/build"
	"github.com/conneroisu/stamp/internal/config"
	"github.com/conneroisu/stamp/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stamp",
	Short: "Version stamping and release tasks for small JavaScript libraries",
	Long: `Stamp substitutes %(key)s markers in library sources with values from
package metadata, then runs the release chores around it: linting, minifying
with a license banner, bumping the semantic version across bower.json and
package.json, and checking that every artifact carries the same version.

Quick Start:
  stamp build                     Lint, clean, copy and minify
  stamp release                   Bump the patch version, then build
  stamp versioncheck              Verify artifact versions agree
  stamp render banner.tmpl        Substitute a template to stdout
  stamp handlers                  List the %(name:arg)s directive handlers`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .stamp.yml, can also use STAMP_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. STAMP_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .stamp.yml in current directory
//
// The function also enables automatic environment variable binding for all
// configuration values with the STAMP_ prefix (e.g., STAMP_DIST=build).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("STAMP_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stamp")
	}

	viper.SetEnvPrefix("STAMP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults apply. A broken one is not
	// silently ignored: Load reports what viper could not parse.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && viper.ConfigFileUsed() != "" {
		fmt.Fprintln(os.Stderr, "Cannot read config file:", err)
	}
}

// newLogger builds the CLI logger from --log-level and --log-format.
func newLogger() (logging.Logger, error) {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	format := viper.GetString("log-format")
	if format != "" && format != "text" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q (expected text, json)", format)
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	return logging.NewLogger(cfg), nil
}

// loadProject loads the configuration and prepares a build project.
func loadProject(ctx context.Context) (*build.Project, logging.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if result := config.ValidateConfigWithDetails(cfg); result.HasWarnings() {
		for _, w := range result.Warnings {
			logger.Warn(ctx, nil, w.Message, "field", w.Field)
		}
	}

	project, err := build.NewProject(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return project, logger, nil
}
