package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sitecsp/internal/config"
	"github.com/conneroisu/sitecsp/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved sitecsp configuration",
	Long: `Print the configuration sitecsp would use, after merging defaults, the
configuration file and SITECSP_ environment variables, as YAML.

Examples:
  sitecsp config                       # Show the resolved configuration
  sitecsp config validate              # Validate the configuration
  sitecsp --config ci.yml config       # Show a specific configuration file`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the configuration and print every error and warning found,
with hints on how to fix them.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# %s\n", used)
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return encoder.Close()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	result := config.ValidateConfigWithDetails(cfg)
	out := cmd.OutOrStdout()

	if report := result.String(); report != "" {
		fmt.Fprint(out, report)
	}
	if !result.Valid() {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "configuration is invalid")
	}
	fmt.Fprintln(out, "Configuration is valid")
	return nil
}
