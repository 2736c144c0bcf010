package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/sftpmon/internal/monitor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check local prerequisites of a run",
	Long: `Check everything a run needs on this host: the sftp client, the test
artifact, a writable download directory and the configured target.
The server itself is not contacted.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	findings := monitor.Preflight(cfg)
	out := cmd.OutOrStdout()
	for _, f := range findings {
		mark := styleSuccess.Render("✓")
		if !f.OK {
			mark = styleError.Render("✗")
		}
		fmt.Fprintf(out, "%s %s %s\n", mark, styleLabel.Render(fmt.Sprintf("%-20s", f.Name)), styleValue.Render(f.Detail))
	}

	if !monitor.Healthy(findings) {
		fmt.Fprintln(out, styleHint.Render("\nRun 'sftpmon artifact create' to (re)create a missing test artifact."))
		return &ExitError{Code: monitor.ExitError}
	}
	return nil
}

func init() {
	addCheckFlags(doctorCmd)
}
