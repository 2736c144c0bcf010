// Package monitor runs one synthetic SFTP transaction end to end:
// settle, drive the session, settle, evaluate, emit Upload, emit Download.
package monitor

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/watchfire-io/sftpmon/internal/evaluate"
	"github.com/watchfire-io/sftpmon/internal/event"
	"github.com/watchfire-io/sftpmon/internal/models"
	"github.com/watchfire-io/sftpmon/internal/session"
)

const sessionFailedReason = "session failed"

// Session produces the transcript of a scripted client session.
type Session interface {
	Run(ctx context.Context) (string, error)
}

// Report describes a finished run.
type Report struct {
	Start      time.Time
	Result     evaluate.Result
	SessionErr error
	Events     []event.Event
}

// Failed reports whether either event was emitted at ERROR.
func (r *Report) Failed() bool {
	return !r.Result.Upload.OK || !r.Result.Download.OK
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg     *models.MonitorConfig
	session Session
	emitter *event.Emitter
	log     *zap.Logger

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	settle func(ctx context.Context, path string, quiet time.Duration) error
	stat   func(path string) (os.FileInfo, error)
}

// NewRunner creates a runner.
func NewRunner(cfg *models.MonitorConfig, sess Session, emitter *event.Emitter, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		session: sess,
		emitter: emitter,
		log:     log.Named("monitor"),
		now:     time.Now,
		sleep:   Sleep,
		settle:  WaitQuiet,
		stat:    os.Stat,
	}
}

// SessionOptions maps a config onto session driver options.
func SessionOptions(cfg *models.MonitorConfig) session.Options {
	return session.Options{
		Client:         cfg.Target.Client,
		ClientOptions:  cfg.Target.ClientOptions,
		Host:           cfg.Target.Hostname,
		Port:           cfg.Target.Port,
		User:           cfg.Target.User,
		Password:       cfg.Target.Password,
		ConfirmHostKey: cfg.ConfirmHostKey(),
		RemoteDir:      cfg.Transfer.RemoteDir,
		SourceDir:      cfg.Transfer.SourceDir,
		DownloadDir:    cfg.Transfer.DownloadDir,
		TestFile:       cfg.Transfer.TestFile,
		Timeout:        cfg.Check.ExpectTimeout,
	}
}

// Run performs one check. Both events are emitted whatever happens to the
// session; the returned error is set only when an event could not be written.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := r.now()
	rep := &Report{Start: start}
	downloadPath := r.cfg.DownloadPath()

	// let second-resolution mtimes move past start
	if err := r.sleep(ctx, r.cfg.Check.SettleDelay); err != nil {
		r.log.Warn("settle delay interrupted", zap.Error(err))
	}

	transcript, err := r.session.Run(ctx)
	if err != nil {
		rep.SessionErr = err
		transcript = ""
		fields := []zap.Field{zap.Error(err)}
		var sessErr *session.SessionError
		if errors.As(err, &sessErr) {
			fields = append(fields, zap.String("step", sessErr.Step), zap.String("cause", string(sessErr.Cause)))
			r.log.Debug("partial transcript", zap.String("transcript", sessErr.Transcript))
		}
		r.log.Warn("sftp session failed", fields...)
	} else {
		r.log.Debug("transcript", zap.String("transcript", transcript))
	}

	if err := r.settle(ctx, downloadPath, r.cfg.Check.SettleDelay); err != nil {
		r.log.Warn("settle wait interrupted", zap.Error(err))
	}

	loc, err := r.cfg.Location()
	if err != nil {
		loc = time.Local
	}
	in := evaluate.Input{
		Transcript: transcript,
		TestFile:   r.cfg.Transfer.TestFile,
		Start:      start,
		Grace:      r.cfg.Check.Grace,
		Location:   loc,
	}
	if info, err := r.stat(downloadPath); err != nil {
		in.DownloadErr = err
	} else {
		in.DownloadModTime = info.ModTime()
	}
	rep.Result = evaluate.Evaluate(in)
	if rep.SessionErr != nil {
		// get may have refreshed the local file before a later step failed
		rep.Result = evaluate.Result{
			Upload:   evaluate.Check{Reason: sessionFailedReason},
			Download: evaluate.Check{Reason: sessionFailedReason},
		}
	}

	r.log.Debug("evaluated",
		zap.Bool("upload_ok", rep.Result.Upload.OK),
		zap.String("upload_reason", rep.Result.Upload.Reason),
		zap.Bool("download_ok", rep.Result.Download.OK),
		zap.String("download_reason", rep.Result.Download.Reason),
	)

	for _, c := range []struct {
		category event.Category
		ok       bool
	}{
		{event.CategoryUpload, rep.Result.Upload.OK},
		{event.CategoryDownload, rep.Result.Download.OK},
	} {
		ev, err := r.emitter.Emit(c.category, c.ok)
		if err != nil {
			return rep, err
		}
		rep.Events = append(rep.Events, ev)
	}

	return rep, nil
}

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitCheckFailed = 2
)

// ExitCode applies the exit policy: 1 when the run could not complete, 2 when
// an event reported ERROR and exitOnFailure is set, 0 otherwise.
func ExitCode(rep *Report, err error, exitOnFailure bool) int {
	if err != nil || rep == nil {
		return ExitError
	}
	if exitOnFailure && rep.Failed() {
		return ExitCheckFailed
	}
	return ExitOK
}
