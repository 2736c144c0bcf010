package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/watchfire-io/sftpmon/internal/models"
)

// Validation errors.
var (
	ErrMissingHostname = errors.New("hostname is required")
	ErrMissingPassword = errors.New("password is required")
)

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// ConfigFile is the YAML file. A missing file means defaults.
	ConfigFile string
	// EnvFile is a dotenv file. A missing file is ignored.
	EnvFile string
	// Environ overrides the process environment (KEY=VALUE entries). Nil means os.Environ().
	Environ []string
}

// Load builds the monitor configuration: defaults, then the YAML file, then the
// dotenv file, then SFTPMON_* environment variables. Process environment wins over
// the dotenv file. Flags are applied by the caller afterwards.
func Load(opts LoadOptions) (*models.MonitorConfig, error) {
	cfg, err := LoadYAMLOrDefault(opts.ConfigFile, models.NewMonitorConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	vars := make(map[string]string)
	if opts.EnvFile != "" && FileExists(opts.EnvFile) {
		dotenv, err := godotenv.Read(opts.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", opts.EnvFile, err)
		}
		for k, v := range dotenv {
			vars[k] = v
		}
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Transfer.SourceDir == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable directory: %w", err)
		}
		cfg.Transfer.SourceDir = dir
	}

	return cfg, nil
}

// Validate checks that a config can drive a run.
func Validate(cfg *models.MonitorConfig) error {
	if strings.TrimSpace(cfg.Target.Hostname) == "" {
		return ErrMissingHostname
	}
	if cfg.Target.Password == "" {
		return ErrMissingPassword
	}
	switch cfg.Target.TestConnection {
	case models.ConnectionInitial, models.ConnectionRegular:
	default:
		return fmt.Errorf("invalid test connection mode %q (expected %s or %s)",
			cfg.Target.TestConnection, models.ConnectionInitial, models.ConnectionRegular)
	}
	if cfg.Target.Port < 0 || cfg.Target.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Target.Port)
	}
	if cfg.Target.Client == "" {
		return fmt.Errorf("client binary is not set")
	}
	if cfg.Transfer.TestFile == "" || strings.ContainsAny(cfg.Transfer.TestFile, "/ \t") {
		return fmt.Errorf("invalid test file name %q", cfg.Transfer.TestFile)
	}
	if cfg.Check.ExpectTimeout <= 0 {
		return fmt.Errorf("expect timeout must be positive, got %s", cfg.Check.ExpectTimeout)
	}
	if cfg.Check.Grace < 0 || cfg.Check.SettleDelay < 0 {
		return fmt.Errorf("grace and settle delay must not be negative")
	}
	switch cfg.Logging.Output {
	case models.OutputStdout, models.OutputStderr:
	default:
		return fmt.Errorf("invalid log output %q", cfg.Logging.Output)
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Check.Timezone, err)
	}
	return nil
}

// SaveMonitorConfig writes a config file.
func SaveMonitorConfig(path string, cfg *models.MonitorConfig) error {
	return SaveYAML(path, cfg)
}
