package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/watchfire-io/sftpmon/internal/config"
	"github.com/watchfire-io/sftpmon/internal/event"
	"github.com/watchfire-io/sftpmon/internal/logging"
	"github.com/watchfire-io/sftpmon/internal/models"
	"github.com/watchfire-io/sftpmon/internal/monitor"
	"github.com/watchfire-io/sftpmon/internal/session"
)

// checkFlags mirror the config keys that are commonly set per invocation.
type checkFlags struct {
	hostname       string
	password       string
	testConnection string
	user           string
	port           int
	expectTimeout  time.Duration
	exitOnFailure  bool
	verbose        bool
}

var check checkFlags

func addCheckFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&check.hostname, "hostname", "", "SFTP server address (required)")
	f.StringVar(&check.password, "pwd", "", "Password of the monitoring account (required)")
	f.StringVar(&check.testConnection, "test-connection", models.ConnectionInitial,
		`"initial" confirms the host key prompt, "regular" expects none`)
	f.StringVar(&check.user, "user", "", "Monitoring account (default from config)")
	f.IntVar(&check.port, "port", 0, "SFTP port (default: client default)")
	f.DurationVar(&check.expectTimeout, "expect-timeout", 0, "Maximum wait for each client prompt")
	f.BoolVar(&check.exitOnFailure, "exit-on-failure", false, "Exit with status 2 when an event is ERROR")
	f.BoolVarP(&check.verbose, "verbose", "v", false, "Log session progress and transcript")
}

// applyFlags overrides cfg with the flags that were set explicitly.
func applyFlags(cmd *cobra.Command, cfg *models.MonitorConfig) {
	f := cmd.Flags()
	if f.Changed("hostname") {
		cfg.Target.Hostname = check.hostname
	}
	if f.Changed("pwd") {
		cfg.Target.Password = check.password
	}
	if f.Changed("test-connection") {
		cfg.Target.TestConnection = check.testConnection
	}
	if f.Changed("user") {
		cfg.Target.User = check.user
	}
	if f.Changed("port") {
		cfg.Target.Port = check.port
	}
	if f.Changed("expect-timeout") {
		cfg.Check.ExpectTimeout = check.expectTimeout
	}
	if f.Changed("exit-on-failure") {
		cfg.Check.ExitOnFailure = check.exitOnFailure
	}
	if check.verbose {
		cfg.Logging.Level = "debug"
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()

	cfg, err := loadConfig()
	if err != nil {
		return reportFatal(logging.Fallback(runID), err)
	}
	applyFlags(cmd, cfg)

	if err := promptPassword(cfg); err != nil {
		return reportFatal(logging.Fallback(runID), err)
	}
	if err := config.Validate(cfg); err != nil {
		return reportFatal(logging.Fallback(runID), err)
	}

	logger, err := logging.New(cfg.Logging, logging.Writer(cfg.Logging.Output), runID)
	if err != nil {
		return reportFatal(logging.Fallback(runID), err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting check",
		zap.String("hostname", cfg.Target.Hostname),
		zap.String("test_connection", cfg.Target.TestConnection),
	)

	driver := session.NewDriver(monitor.SessionOptions(cfg), logger)
	emitter := event.NewEmitter(cmd.OutOrStdout(), cfg.Target.Hostname)
	rep, err := monitor.NewRunner(cfg, driver, emitter, logger).Run(ctx)
	code := monitor.ExitCode(rep, err, cfg.Check.ExitOnFailure)
	switch {
	case code == monitor.ExitError:
		return reportFatal(logger, err)
	case code != monitor.ExitOK:
		return &ExitError{Code: code}
	}
	return nil
}

// reportFatal logs an error that stopped the run and turns it into exit status 1.
func reportFatal(logger *zap.Logger, err error) error {
	logger.Error(fmt.Sprintf("There was an error executing sftp monitor. Error - %v", err), zap.Error(err))
	_ = logger.Sync()
	return &ExitError{Code: monitor.ExitError, Err: err}
}
