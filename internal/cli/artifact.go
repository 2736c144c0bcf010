package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/sftpmon/internal/artifact"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Manage the test artifact that gets transferred",
}

var (
	artifactPath string
	artifactSize int
)

var artifactCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create (or replace) the test artifact",
	Long: `Create the zip file a check uploads. By default it is written to
transfer.source_dir/transfer.test_file from the configuration.`,
	Args: cobra.NoArgs,
	RunE: runArtifactCreate,
}

func runArtifactCreate(cmd *cobra.Command, args []string) error {
	path := artifactPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.SourcePath()
	}

	if err := artifact.Create(path, time.Now(), artifactSize); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("Created %s", path)))
	return nil
}

func init() {
	artifactCreateCmd.Flags().StringVar(&artifactPath, "path", "", "Output path (default from config)")
	artifactCreateCmd.Flags().IntVar(&artifactSize, "size", artifact.DefaultPayloadSize, "Random payload size in bytes")

	artifactCmd.AddCommand(artifactCreateCmd)
}
