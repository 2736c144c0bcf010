// Package evaluate classifies the upload and download of a run as fresh or stale.
package evaluate

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/watchfire-io/sftpmon/internal/listing"
)

// Check is the outcome of one freshness rule.
type Check struct {
	OK       bool
	Observed time.Time // timestamp that was compared, zero if none
	Reason   string
}

// Result holds the two independent outcomes of a run.
type Result struct {
	Upload   Check
	Download Check
}

// Input is everything the evaluator looks at.
type Input struct {
	Transcript string // empty when the session failed
	TestFile   string
	Start      time.Time
	Grace      time.Duration
	Location   *time.Location

	DownloadModTime time.Time
	DownloadErr     error // stat error for the downloaded file
}

// Evaluate applies both rules.
func Evaluate(in Input) Result {
	return Result{
		Upload:   Upload(in.Transcript, in.TestFile, in.Start, in.Grace, in.Location),
		Download: Download(in.DownloadModTime, in.DownloadErr, in.Start),
	}
}

// Upload succeeds when the remote listing of testFile, plus grace, is at or after start.
// The grace absorbs the listing's one-minute resolution.
func Upload(transcript, testFile string, start time.Time, grace time.Duration, loc *time.Location) Check {
	entry, err := listing.Find(transcript, testFile, start, loc)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return Check{Reason: "test file missing from listing"}
		}
		return Check{Reason: err.Error()}
	}

	adjusted := entry.ModTime.Add(grace)
	if adjusted.Before(start) {
		return Check{
			Observed: entry.ModTime,
			Reason:   fmt.Sprintf("remote timestamp %s is older than run start", entry.ModTime.Format(time.RFC3339)),
		}
	}
	return Check{OK: true, Observed: entry.ModTime}
}

// Download succeeds when the local copy was modified strictly after start.
func Download(modTime time.Time, statErr error, start time.Time) Check {
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return Check{Reason: "downloaded file does not exist"}
		}
		return Check{Reason: statErr.Error()}
	}
	if !modTime.After(start) {
		return Check{
			Observed: modTime,
			Reason:   fmt.Sprintf("local modification time %s is not after run start", modTime.Format(time.RFC3339Nano)),
		}
	}
	return Check{OK: true, Observed: modTime}
}
