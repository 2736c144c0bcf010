// Package session drives an interactive sftp client through the scripted
// upload/download dialogue and captures its transcript.
package session

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
)

// Prompts the client is expected to print.
const (
	PromptHostKey  = "(yes/no"
	PromptPassword = "password: "
	PromptCommand  = "sftp> "
)

// Options describe one scripted session.
type Options struct {
	Client        string   // sftp binary
	ClientOptions []string // extra arguments placed before the destination
	Host          string
	Port          int // 0 = client default
	User          string
	Password      string

	ConfirmHostKey bool

	RemoteDir   string
	SourceDir   string
	DownloadDir string
	TestFile    string

	// Timeout bounds every single expectation, not the whole session.
	Timeout time.Duration
}

// Step is one exchange of the dialogue: wait for Expect, then send Send.
type Step struct {
	Name   string
	Expect string
	Send   string
	Secret bool // Send is not logged
}

// Script returns the ordered dialogue for opts.
func Script(opts Options) []Step {
	var steps []Step
	if opts.ConfirmHostKey {
		steps = append(steps, Step{Name: "confirm host key", Expect: PromptHostKey, Send: "yes"})
	}
	return append(steps,
		Step{Name: "authenticate", Expect: PromptPassword, Send: opts.Password, Secret: true},
		Step{Name: "change remote directory", Expect: PromptCommand, Send: "cd " + opts.RemoteDir},
		Step{Name: "set source directory", Expect: PromptCommand, Send: "lcd " + opts.SourceDir},
		Step{Name: "upload", Expect: PromptCommand, Send: "put " + opts.TestFile},
		Step{Name: "set download directory", Expect: PromptCommand, Send: "lcd " + opts.DownloadDir},
		Step{Name: "download", Expect: PromptCommand, Send: "get " + opts.TestFile},
		Step{Name: "list", Expect: PromptCommand, Send: "ls -l " + opts.TestFile},
		Step{Name: "close", Expect: PromptCommand, Send: "bye"},
	)
}

// Args returns the client command line arguments.
func (o Options) Args() []string {
	var args []string
	if o.Port > 0 {
		args = append(args, "-P", strconv.Itoa(o.Port))
	}
	args = append(args, o.ClientOptions...)
	return append(args, o.User+"@"+o.Host)
}

// SessionError reports a failed dialogue. The partial transcript is kept for
// diagnostics only; it must not be evaluated.
type SessionError struct {
	Step       string
	Cause      Cause
	Transcript string
	Err        error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("sftp session failed at %q (%s): %v", e.Step, e.Cause, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Driver runs the scripted dialogue.
type Driver struct {
	opts Options
	log  *zap.Logger
}

// NewDriver creates a session driver.
func NewDriver(opts Options, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{opts: opts, log: log.Named("session")}
}

// Run spawns the client, walks the dialogue and returns the cleaned transcript.
func (d *Driver) Run(ctx context.Context) (string, error) {
	cmd := exec.Command(d.opts.Client, d.opts.Args()...)
	d.log.Debug("starting client", zap.String("command", cmd.String()))

	proc, err := NewProcess(ProcessOptions{Cmd: cmd})
	if err != nil {
		return "", &SessionError{Step: "start", Cause: CauseSpawn, Err: err}
	}
	defer proc.Stop()

	fail := func(step string, err error) (string, error) {
		transcript := CleanTranscript(proc.Output())
		return "", &SessionError{
			Step:       step,
			Cause:      Classify(transcript, err),
			Transcript: transcript,
			Err:        err,
		}
	}

	for _, step := range Script(d.opts) {
		if err := proc.Expect(ctx, step.Expect, d.opts.Timeout); err != nil {
			return fail(step.Name, fmt.Errorf("expecting %q: %w", step.Expect, err))
		}
		if step.Secret {
			d.log.Debug("sending", zap.String("step", step.Name))
		} else {
			d.log.Debug("sending", zap.String("step", step.Name), zap.String("line", step.Send))
		}
		if err := proc.SendLine(step.Send); err != nil {
			return fail(step.Name, fmt.Errorf("writing to client: %w", err))
		}
	}

	if err := proc.WaitExit(ctx, d.opts.Timeout); err != nil {
		return fail("exit", err)
	}

	transcript := CleanTranscript(proc.Output())
	d.log.Debug("session finished", zap.Int("transcript_bytes", len(transcript)))
	return transcript, nil
}

// CleanTranscript strips terminal escape sequences and normalises line endings.
func CleanTranscript(raw string) string {
	s := ansi.Strip(raw)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
