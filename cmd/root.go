// Package cmd provides the command-line interface for sitecsp with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --workers, etc.) - highest priority
//	2. SITECSP_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (SITECSP_CSP_INDENTATION, etc.)
//	4. Configuration files (.sitecsp.yml) - lowest priority
//
// Environment Variables:
//
//	SITECSP_CONFIG_FILE: Path to custom configuration file
//	SITECSP_CSP_INDENTATION: Override policy indentation
//	SITECSP_CSP_DEBUG: Log every policy decision
//	SITECSP_BUILD_SITE_DIR: Override the site directory
//	And more following the SITECSP_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sitecsp/internal/config"
	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitecsp",
	Short: "Generate Content-Security-Policy meta tags for static sites",
	Long: `sitecsp reads generated HTML pages and embeds a Content-Security-Policy
in each of them as a <meta http-equiv="Content-Security-Policy"> element.

For every page it keeps any policy already present, adds 'self' to the
default directives, turns style attributes into hashable <style> blocks,
and allows the scripts, styles, images and frames the page references.

Quick Start:
  sitecsp process index.html -o out.html   Process a single page
  sitecsp build _site                      Rewrite every page of a site
  sitecsp watch _site                      Rewrite pages as they change
  sitecsp config                           Show the resolved configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .sitecsp.yml, can also use SITECSP_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	AddFlagValidation(rootCmd, "log-level", func(s string) error {
		_, err := logging.ParseLevel(s)
		return err
	})
	AddFlagValidation(rootCmd, "log-format", ValidateOneOf("text", "json"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. SITECSP_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .sitecsp.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SITECSP_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sitecsp")
	}

	config.ConfigureViper(viper.GetViper())

	// A missing or malformed file falls back to defaults and environment.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadRuntime loads the configuration and creates the logger for a command.
func loadRuntime(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.CSP.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newLogger builds the CLI logger. Policy debugging forces the debug level
// so its decisions are visible.
func newLogger(out io.Writer, debug bool) (logging.Logger, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = logging.LevelDebug
	}

	switch logFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("unsupported log format: %s (supported: text, json)", logFormat)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: logFormat,
		Output: out,
	}), nil
}

// newGenerator creates the policy generator for cfg.
func newGenerator(cfg *config.Config, logger logging.Logger, opts ...csp.Option) *csp.Generator {
	opts = append([]csp.Option{csp.WithLogger(logger)}, opts...)
	return csp.NewGenerator(cfg.CSP.GeneratorConfig(), opts...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
