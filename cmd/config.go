package cmd

import (
	"fmt"
	"io"

	"reels-relay/infrastructure/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
	Long: `Inspect the configuration assembled from the config file, a .env file
and the environment.

Examples:
  reels-relay config show
  reels-relay --config /etc/reels-relay.yaml config show`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	return RunConfigShowWithDependencies(cfg, cfgFile, DefaultOutput)
}

// RunConfigShowWithDependencies prints cfg with injected dependencies (for testing)
func RunConfigShowWithDependencies(cfg *config.Config, configPath string, out io.Writer) error {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	fmt.Fprintf(out, "# Source: %s + environment\n", configPath)
	out.Write(data)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "\n# Not runnable: %v\n", err)
	}
	return nil
}
