// Package cli implements the sftpmon commands.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/sftpmon/internal/config"
	"github.com/watchfire-io/sftpmon/internal/models"
)

var rootCmd = &cobra.Command{
	Use:   "sftpmon",
	Short: "Synthetic upload/download health check for an SFTP service",
	Long: `sftpmon logs into an SFTP server with the sftp client, uploads a test artifact,
downloads it back and lists it. It then prints two JSON events (SFTPUpload,
SFTPDownload) whose log.level is INFO when the transfer was fresh and ERROR
otherwise, for a log pipeline to alert on.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runCheck,
}

var (
	configFile string
	envFile    string
)

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
	Err  error // already reported when set
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, styleError.Render("Error:"), err)
	}
	return err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// loadConfig reads the config file and environment selected by the persistent flags.
func loadConfig() (*models.MonitorConfig, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile(), "Config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.EnvFileName, "Dotenv file with SFTPMON_* variables")

	addCheckFlags(rootCmd)

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(artifactCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
