package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/watchfire-io/sftpmon/internal/models"
)

// promptPassword asks for the password on an interactive terminal when no other
// source provided one. Non-interactive runs are left to fail validation.
func promptPassword(cfg *models.MonitorConfig) error {
	if cfg.Target.Password != "" {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", cfg.Target.User, cfg.Target.Hostname)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	cfg.Target.Password = string(pw)
	return nil
}
