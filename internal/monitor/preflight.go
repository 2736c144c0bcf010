package monitor

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/watchfire-io/sftpmon/internal/artifact"
	"github.com/watchfire-io/sftpmon/internal/models"
)

// Finding is the result of one preflight check.
type Finding struct {
	Name   string
	OK     bool
	Detail string
}

// Preflight checks the local prerequisites of a run without contacting the server.
func Preflight(cfg *models.MonitorConfig) []Finding {
	var findings []Finding
	add := func(name string, err error, okDetail string) {
		if err != nil {
			findings = append(findings, Finding{Name: name, Detail: err.Error()})
			return
		}
		findings = append(findings, Finding{Name: name, OK: true, Detail: okDetail})
	}

	if cfg.Target.Hostname == "" {
		add("hostname", fmt.Errorf("not configured"), "")
	} else {
		add("hostname", nil, cfg.Target.Hostname)
	}

	client, err := exec.LookPath(cfg.Target.Client)
	add("sftp client", err, client)

	add("test artifact", artifact.Verify(cfg.SourcePath()), cfg.SourcePath())

	add("download directory", checkWritable(cfg.Transfer.DownloadDir), cfg.Transfer.DownloadDir)

	loc, err := cfg.Location()
	if err != nil {
		add("timezone", err, "")
	} else {
		add("timezone", nil, loc.String())
	}

	return findings
}

// Healthy reports whether every finding passed.
func Healthy(findings []Finding) bool {
	for _, f := range findings {
		if !f.OK {
			return false
		}
	}
	return true
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".sftpmon-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
