package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/watchfire-io/sftpmon/internal/config"
	"github.com/watchfire-io/sftpmon/internal/models"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (password redacted)",
	Long: `Print the configuration a check would run with, after applying the config
file, the dotenv file and SFTPMON_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if config.FileExists(configFile) && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
	}

	if err := config.SaveMonitorConfig(configFile, models.NewMonitorConfig()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("Wrote "+configFile))
	fmt.Fprintln(cmd.OutOrStdout(), styleHint.Render("Set target.hostname, then store the password in SFTPMON_PASSWORD or the file."))
	return nil
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
