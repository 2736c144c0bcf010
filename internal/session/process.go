package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// Expectation errors.
var (
	ErrTimeout = errors.New("timed out waiting for prompt")
	ErrClosed  = errors.New("client exited before prompt appeared")
)

// ProcessOptions contains options for starting a client process.
type ProcessOptions struct {
	Cmd  *exec.Cmd
	Rows int
	Cols int
}

// Process manages an interactive client running behind a PTY. All output is
// accumulated so it can be matched against expected prompts and returned as
// the session transcript.
type Process struct {
	cmd     *exec.Cmd
	ptyFile *os.File
	done    chan struct{}
	exitErr error

	mu      sync.Mutex
	output  strings.Builder
	cursor  int // output offset after the last matched prompt
	changed chan struct{}

	cleanupOnce sync.Once
}

// NewProcess starts the command in a PTY.
func NewProcess(opts ProcessOptions) (*Process, error) {
	rows := opts.Rows
	cols := opts.Cols
	if rows <= 0 {
		rows = 24
	}
	if cols <= 0 {
		// wide enough that long listings are never wrapped
		cols = 512
	}

	ptmx, err := pty.StartWithSize(opts.Cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	p := &Process{
		cmd:     opts.Cmd,
		ptyFile: ptmx,
		done:    make(chan struct{}),
		changed: make(chan struct{}, 1),
	}

	go p.readLoop()

	return p, nil
}

// readLoop reads from the PTY until the client closes it.
func (p *Process) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := p.ptyFile.Read(buf)
		if n > 0 {
			p.mu.Lock()
			p.output.Write(buf[:n])
			p.mu.Unlock()

			select {
			case p.changed <- struct{}{}:
			default:
			}
		}
		if err != nil {
			break
		}
	}

	p.exitErr = p.cmd.Wait()
	close(p.done)
}

// match advances the cursor past the next occurrence of literal, if any.
func (p *Process) match(literal string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	rest := p.output.String()[p.cursor:]
	idx := strings.Index(rest, literal)
	if idx < 0 {
		return false
	}
	p.cursor += idx + len(literal)
	return true
}

// Expect blocks until literal appears in output not yet consumed by a previous
// Expect, the client exits, the timeout elapses or ctx is done.
func (p *Process) Expect(ctx context.Context, literal string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if p.match(literal) {
			return nil
		}
		select {
		case <-p.changed:
		case <-p.done:
			// readLoop has drained the PTY, so this check sees all output
			if p.match(literal) {
				return nil
			}
			return ErrClosed
		case <-timer.C:
			return ErrTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SendLine writes a line of input to the client.
func (p *Process) SendLine(line string) error {
	_, err := p.ptyFile.Write([]byte(line + "\r"))
	return err
}

// WaitExit blocks until the client exits on its own.
func (p *Process) WaitExit(ctx context.Context, timeout time.Duration) error {
	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Output returns everything the client has written so far.
func (p *Process) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output.String()
}

// Stop terminates the client. Sends SIGTERM, waits 5 seconds, then SIGKILL.
func (p *Process) Stop() {
	if p.cmd.Process == nil {
		return
	}

	select {
	case <-p.done:
		p.Cleanup()
		return
	default:
	}

	// pty.Start makes the client a session leader; signal the whole group so the
	// ssh subprocess sftp spawns goes down with it.
	pgid := -p.cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case <-p.done:
		p.Cleanup()
		return
	case <-time.After(5 * time.Second):
	}

	_ = syscall.Kill(pgid, syscall.SIGKILL)
	p.Cleanup()
	<-p.done
}

// Cleanup releases the PTY. Safe to call multiple times.
func (p *Process) Cleanup() {
	p.cleanupOnce.Do(func() {
		if p.ptyFile != nil {
			_ = p.ptyFile.Close()
		}
	})
}

// Done returns a channel that is closed when the client exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr returns the client exit error (nil if exited cleanly).
func (p *Process) ExitErr() error {
	return p.exitErr
}
