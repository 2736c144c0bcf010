package models

import (
	"path/filepath"
	"time"
)

// Connection modes. Initial expects the client to ask for host key confirmation.
const (
	ConnectionInitial = "initial"
	ConnectionRegular = "regular"
)

// Diagnostic log sinks.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// TargetConfig describes the SFTP endpoint and the monitoring account.
type TargetConfig struct {
	Hostname       string   `yaml:"hostname" env:"HOSTNAME"`
	Port           int      `yaml:"port" env:"PORT"` // 0 = client default
	User           string   `yaml:"user" env:"USER"`
	Password       string   `yaml:"password,omitempty" env:"PASSWORD"`
	TestConnection string   `yaml:"test_connection" env:"TEST_CONNECTION"` // "initial" | "regular"
	Client         string   `yaml:"client" env:"CLIENT"`                   // sftp binary, PATH lookup if not absolute
	ClientOptions  []string `yaml:"client_options,omitempty" env:"CLIENT_OPTIONS" envSeparator:","`
}

// TransferConfig holds the directories and file used by the scripted transfer.
type TransferConfig struct {
	RemoteDir   string `yaml:"remote_dir" env:"REMOTE_DIR"`
	SourceDir   string `yaml:"source_dir" env:"SOURCE_DIR"` // empty = directory of the executable
	DownloadDir string `yaml:"download_dir" env:"DOWNLOAD_DIR"`
	TestFile    string `yaml:"test_file" env:"TEST_FILE"`
}

// CheckConfig holds the timing rules of a run.
type CheckConfig struct {
	Grace         time.Duration `yaml:"grace" env:"GRACE"`
	SettleDelay   time.Duration `yaml:"settle_delay" env:"SETTLE_DELAY"`
	ExpectTimeout time.Duration `yaml:"expect_timeout" env:"EXPECT_TIMEOUT"`
	Timezone      string        `yaml:"timezone" env:"TIMEZONE"` // location of listing timestamps
	ExitOnFailure bool          `yaml:"exit_on_failure" env:"EXIT_ON_FAILURE"`
}

// LoggingConfig configures the diagnostic JSON logger.
type LoggingConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Output      string `yaml:"output" env:"LOG_OUTPUT"` // "stdout" | "stderr"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	ServiceType string `yaml:"service_type" env:"SERVICE_TYPE"`
}

// MonitorConfig is the full configuration of one health check run.
// This corresponds to /etc/sftpmon/config.yaml.
type MonitorConfig struct {
	Version  int            `yaml:"version"`
	Target   TargetConfig   `yaml:"target"`
	Transfer TransferConfig `yaml:"transfer"`
	Check    CheckConfig    `yaml:"check"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NewMonitorConfig creates a config with default values.
func NewMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		Version: 1,
		Target: TargetConfig{
			User:           "sftpmonitor1",
			TestConnection: ConnectionInitial,
			Client:         "sftp",
		},
		Transfer: TransferConfig{
			RemoteDir:   "Incoming/",
			DownloadDir: "/tmp",
			TestFile:    "Elastic_test.zip",
		},
		Check: CheckConfig{
			Grace:         59 * time.Second,
			SettleDelay:   time.Second,
			ExpectTimeout: 30 * time.Second,
			Timezone:      "Local",
		},
		Logging: LoggingConfig{
			Level:       "error",
			Output:      OutputStdout,
			ServiceName: "sftp",
			ServiceType: "logstash_monitoring",
		},
	}
}

// SourcePath returns the local path of the artifact that gets uploaded.
func (c *MonitorConfig) SourcePath() string {
	return filepath.Join(c.Transfer.SourceDir, c.Transfer.TestFile)
}

// DownloadPath returns the local path the artifact is downloaded to.
func (c *MonitorConfig) DownloadPath() string {
	return filepath.Join(c.Transfer.DownloadDir, c.Transfer.TestFile)
}

// ConfirmHostKey reports whether the host-authenticity prompt is expected.
func (c *MonitorConfig) ConfirmHostKey() bool {
	return c.Target.TestConnection == ConnectionInitial
}

// Location resolves the timezone listing timestamps are read in.
func (c *MonitorConfig) Location() (*time.Location, error) {
	if c.Check.Timezone == "" || c.Check.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Check.Timezone)
}

// Redacted returns a copy that is safe to print.
func (c *MonitorConfig) Redacted() *MonitorConfig {
	cp := *c
	if cp.Target.Password != "" {
		cp.Target.Password = "********"
	}
	cp.Target.ClientOptions = append([]string(nil), c.Target.ClientOptions...)
	return &cp
}
