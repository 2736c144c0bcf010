// Package config handles configuration loading, validation and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the directory holding the system-wide sftpmon configuration.
	GlobalDirName = "/etc/sftpmon"

	// ConfigFileName is the name of the config file.
	ConfigFileName = "config.yaml"

	// EnvFileName is the dotenv file read from the working directory.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment variable sftpmon reads.
	EnvPrefix = "SFTPMON_"
)

// DefaultConfigFile returns the path to /etc/sftpmon/config.yaml.
func DefaultConfigFile() string {
	return filepath.Join(GlobalDirName, ConfigFileName)
}

// ExecutableDir returns the directory of the running binary, which is where the
// test artifact lives unless configured otherwise.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
