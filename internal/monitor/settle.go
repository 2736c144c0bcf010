package monitor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// maxSettleFactor bounds WaitQuiet to this many quiet periods.
const maxSettleFactor = 5

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitQuiet blocks until path has not been written for quiet. Every write or
// create of path restarts the wait, up to maxSettleFactor*quiet in total. With
// no activity this is a plain delay of quiet.
func WaitQuiet(ctx context.Context, path string, quiet time.Duration) error {
	if quiet <= 0 {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Sleep(ctx, quiet)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return Sleep(ctx, quiet)
	}

	target := filepath.Clean(path)
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	deadline := time.NewTimer(maxSettleFactor * quiet)
	defer deadline.Stop()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(quiet)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return nil
			}
		case <-timer.C:
			return nil
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
