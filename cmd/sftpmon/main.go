// Package main is the entry point for the sftpmon health check.
package main

import (
	"os"

	"github.com/watchfire-io/sftpmon/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
