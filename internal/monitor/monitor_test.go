package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/sftpmon/internal/event"
	"github.com/watchfire-io/sftpmon/internal/models"
	"github.com/watchfire-io/sftpmon/internal/session"
)

var start = time.Date(2025, time.January, 5, 10, 31, 0, 0, time.UTC)

const goodTranscript = "sftp> ls -l Elastic_test.zip\n" +
	"-rw-r--r--    1 sftpmonitor1 sftpmonitor1     1234 Jan  5 10:32 Elastic_test.zip\n" +
	"sftp> bye\n"

type fakeSession struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeSession) Run(context.Context) (string, error) {
	f.calls++
	return f.transcript, f.err
}

type fakeInfo struct {
	os.FileInfo
	mod time.Time
}

func (f fakeInfo) ModTime() time.Time { return f.mod }

func newTestRunner(t *testing.T, sess Session, out *bytes.Buffer, modTime time.Time, statErr error) *Runner {
	t.Helper()
	cfg := models.NewMonitorConfig()
	cfg.Target.Hostname = "sftp.example.com"
	cfg.Check.Timezone = "UTC"

	em := event.NewEmitter(out, cfg.Target.Hostname).WithClock(func() time.Time { return start.Add(5 * time.Second) })
	r := NewRunner(cfg, sess, em, nil)
	r.now = func() time.Time { return start }
	r.sleep = func(context.Context, time.Duration) error { return nil }
	r.settle = func(context.Context, string, time.Duration) error { return nil }
	r.stat = func(path string) (os.FileInfo, error) {
		assert.Equal(t, "/tmp/Elastic_test.zip", path)
		if statErr != nil {
			return nil, statErr
		}
		return fakeInfo{mod: modTime}, nil
	}
	return r
}

func levels(t *testing.T, out string) []string {
	t.Helper()
	var got []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var ev event.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		got = append(got, ev.Service.Name+"="+string(ev.Log.Level))
	}
	return got
}

func TestRunSuccess(t *testing.T) {
	var out bytes.Buffer
	r := newTestRunner(t, &fakeSession{transcript: goodTranscript}, &out, start.Add(2*time.Second), nil)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Failed())
	assert.Nil(t, rep.SessionErr)
	assert.Equal(t, []string{"SFTPUpload=INFO", "SFTPDownload=INFO"}, levels(t, out.String()))
	assert.Len(t, rep.Events, 2)
}

func TestRunSessionFailureStillEmitsBoth(t *testing.T) {
	var out bytes.Buffer
	sess := &fakeSession{
		transcript: goodTranscript, // must be ignored
		err: &session.SessionError{
			Step:  "authenticate",
			Cause: session.CauseTimeout,
			Err:   session.ErrTimeout,
		},
	}
	r := newTestRunner(t, sess, &out, start.Add(-time.Hour), nil)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Failed())
	assert.ErrorIs(t, rep.SessionErr, session.ErrTimeout)
	assert.Equal(t, []string{"SFTPUpload=ERROR", "SFTPDownload=ERROR"}, levels(t, out.String()))
}

func TestRunSessionFailureAfterDownloadIsError(t *testing.T) {
	for _, step := range []string{"list", "close", "exit"} {
		t.Run(step, func(t *testing.T) {
			var out bytes.Buffer
			sess := &fakeSession{
				transcript: goodTranscript,
				err: &session.SessionError{
					Step:  step,
					Cause: session.CauseClosed,
					Err:   session.ErrClosed,
				},
			}
			// the download file was refreshed by get before the failure
			r := newTestRunner(t, sess, &out, start.Add(2*time.Second), nil)

			rep, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.True(t, rep.Failed())
			assert.Equal(t, "session failed", rep.Result.Download.Reason)
			assert.Equal(t, "session failed", rep.Result.Upload.Reason)
			assert.Equal(t, []string{"SFTPUpload=ERROR", "SFTPDownload=ERROR"}, levels(t, out.String()))
			assert.Equal(t, ExitCheckFailed, ExitCode(rep, nil, true))
		})
	}
}

func TestRunOutcomesIndependent(t *testing.T) {
	var out bytes.Buffer
	r := newTestRunner(t, &fakeSession{transcript: goodTranscript}, &out, time.Time{}, fs.ErrNotExist)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Result.Upload.OK)
	assert.False(t, rep.Result.Download.OK)
	assert.Equal(t, []string{"SFTPUpload=INFO", "SFTPDownload=ERROR"}, levels(t, out.String()))

	out.Reset()
	r = newTestRunner(t, &fakeSession{transcript: "sftp> bye\n"}, &out, start.Add(time.Second), nil)
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"SFTPUpload=ERROR", "SFTPDownload=INFO"}, levels(t, out.String()))
}

func TestRunDownloadAtStartIsStale(t *testing.T) {
	var out bytes.Buffer
	r := newTestRunner(t, &fakeSession{transcript: goodTranscript}, &out, start, nil)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Result.Download.OK)
}

func TestRunTwiceProducesIndependentPairs(t *testing.T) {
	var out bytes.Buffer
	sess := &fakeSession{transcript: goodTranscript}
	r := newTestRunner(t, sess, &out, start.Add(2*time.Second), nil)

	for i := 0; i < 2; i++ {
		_, err := r.Run(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, sess.calls)
	assert.Equal(t, []string{
		"SFTPUpload=INFO", "SFTPDownload=INFO",
		"SFTPUpload=INFO", "SFTPDownload=INFO",
	}, levels(t, out.String()))
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestRunEmitFailure(t *testing.T) {
	cfg := models.NewMonitorConfig()
	cfg.Target.Hostname = "h"
	r := NewRunner(cfg, &fakeSession{}, event.NewEmitter(brokenWriter{}, "h"), nil)
	r.sleep = func(context.Context, time.Duration) error { return nil }
	r.settle = func(context.Context, string, time.Duration) error { return nil }

	rep, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitError, ExitCode(rep, err, false))
}

func TestExitCode(t *testing.T) {
	ok := &Report{}
	ok.Result.Upload.OK = true
	ok.Result.Download.OK = true
	failed := &Report{}
	failed.Result.Upload.OK = true

	tests := []struct {
		name          string
		rep           *Report
		err           error
		exitOnFailure bool
		want          int
	}{
		{name: "healthy", rep: ok, want: ExitOK},
		{name: "unhealthy default policy", rep: failed, want: ExitOK},
		{name: "unhealthy strict policy", rep: failed, exitOnFailure: true, want: ExitCheckFailed},
		{name: "healthy strict policy", rep: ok, exitOnFailure: true, want: ExitOK},
		{name: "top-level error", rep: ok, err: errors.New("boom"), want: ExitError},
		{name: "no report", want: ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.rep, tt.err, tt.exitOnFailure))
		})
	}
}

func TestSessionOptionsFromConfig(t *testing.T) {
	cfg := models.NewMonitorConfig()
	cfg.Target.Hostname = "h"
	cfg.Target.Password = "pw"
	cfg.Target.TestConnection = models.ConnectionRegular
	cfg.Transfer.SourceDir = "/opt/sftpmon"

	opts := SessionOptions(cfg)
	assert.False(t, opts.ConfirmHostKey)
	assert.Equal(t, "/opt/sftpmon", opts.SourceDir)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, []string{"sftpmonitor1@h"}, opts.Args())
}
