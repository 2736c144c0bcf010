package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/sftpmon/internal/models"
)

func parsedCheckCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	check = checkFlags{}
	cmd := &cobra.Command{Use: "test"}
	addCheckFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestApplyFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cfg := models.NewMonitorConfig()
	cfg.Target.Hostname = "from-config.example.com"
	cfg.Target.Port = 2222
	cfg.Target.Password = "file-secret"

	cmd := parsedCheckCmd(t, "--pwd", "flag-secret", "--test-connection", "regular")
	applyFlags(cmd, cfg)

	assert.Equal(t, "from-config.example.com", cfg.Target.Hostname)
	assert.Equal(t, 2222, cfg.Target.Port)
	assert.Equal(t, "flag-secret", cfg.Target.Password)
	assert.Equal(t, models.ConnectionRegular, cfg.Target.TestConnection)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestApplyFlagsAll(t *testing.T) {
	cfg := models.NewMonitorConfig()

	cmd := parsedCheckCmd(t,
		"--hostname", "sftp.example.com",
		"--user", "probe",
		"--port", "22",
		"--expect-timeout", "5s",
		"--exit-on-failure",
		"-v",
	)
	applyFlags(cmd, cfg)

	assert.Equal(t, "sftp.example.com", cfg.Target.Hostname)
	assert.Equal(t, "probe", cfg.Target.User)
	assert.Equal(t, 22, cfg.Target.Port)
	assert.Equal(t, 5*time.Second, cfg.Check.ExpectTimeout)
	assert.True(t, cfg.Check.ExitOnFailure)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(&ExitError{Code: 2}))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))

	wrapped := &ExitError{Code: 1, Err: errors.New("no hostname")}
	assert.Equal(t, "no hostname", wrapped.Error())
	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "sftpmon")
	assert.Contains(t, out.String(), "dev")
	assert.Contains(t, out.String(), "OS/Arch")
}
