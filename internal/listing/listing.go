// Package listing parses the long-format (`ls -l`) output of an sftp client.
//
// An entry line has at least nine whitespace separated fields:
//
//	-rw-r--r--    1 sftpmonitor1 sftpmonitor1     1234 Jan  5 10:32 Elastic_test.zip
//	mode       links owner       group            size  month day time-or-year name...
//
// The timestamp has minute resolution for recent files and day resolution
// (with a year instead of a time) for older ones.
package listing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound means the file name does not occur in the output at all.
	ErrNotFound = errors.New("file not present in listing output")
	// ErrFormat means the name occurs but no line parses as a long-listing entry for it.
	ErrFormat = errors.New("unrecognised long-listing format")
)

const minFields = 9

// Entry is one parsed long-listing line. Links and Size are kept as printed.
type Entry struct {
	Mode    string
	Links   string
	Owner   string
	Group   string
	Size    string
	ModTime time.Time
	HasTime bool // false when the listing printed a year instead of hh:mm
	Name    string
}

// Find returns the last long-listing entry for name in output. Timestamps
// without a year are resolved against ref (see ParseTimestamp).
func Find(output, name string, ref time.Time, loc *time.Location) (*Entry, error) {
	if !strings.Contains(output, name) {
		return nil, ErrNotFound
	}

	lines := strings.Split(output, "\n")
	var lastErr error
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(line, name) {
			continue
		}
		entry, err := ParseLine(line, ref, loc)
		if err != nil {
			if lastErr == nil && looksLikeEntry(line) {
				lastErr = err
			}
			continue
		}
		if entry.Name == name {
			return entry, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: no entry line for %s", ErrFormat, name)
}

// ParseLine parses a single long-listing line.
func ParseLine(line string, ref time.Time, loc *time.Location) (*Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: %d fields in %q", ErrFormat, len(fields), line)
	}
	if !isMode(fields[0]) {
		return nil, fmt.Errorf("%w: %q is not a file mode", ErrFormat, fields[0])
	}

	modTime, hasTime, err := ParseTimestamp(fields[5], fields[6], fields[7], ref, loc)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Mode:    fields[0],
		Links:   fields[1],
		Owner:   fields[2],
		Group:   fields[3],
		Size:    fields[4],
		ModTime: modTime,
		HasTime: hasTime,
		Name:    strings.Join(fields[8:], " "),
	}, nil
}

// ParseTimestamp parses the month, day and time-or-year columns. When the
// listing shows hh:mm it carries no year; the year out of ref-1, ref and ref+1
// that lands closest to ref is used, so listings read across New Year resolve
// in either direction. A listing that shows a year instead resolves to midnight
// of that day; clients only print that form for files older than six months.
func ParseTimestamp(month, day, timeOrYear string, ref time.Time, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.Local
	}

	if strings.Contains(timeOrYear, ":") {
		t, err := time.ParseInLocation("Jan 2 15:04 2006",
			fmt.Sprintf("%s %s %s %d", month, day, timeOrYear, ref.In(loc).Year()), loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return closestYear(t, ref), true, nil
	}

	t, err := time.ParseInLocation("Jan 2 2006", fmt.Sprintf("%s %s %s", month, day, timeOrYear), loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return t, false, nil
}

// closestYear shifts t by at most one year towards ref.
func closestYear(t, ref time.Time) time.Time {
	best := t
	for _, years := range []int{-1, 1} {
		c := t.AddDate(years, 0, 0)
		if absDuration(c.Sub(ref)) < absDuration(best.Sub(ref)) {
			best = c
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func isMode(s string) bool {
	if len(s) < 10 {
		return false
	}
	return strings.ContainsRune("-dlcbps", rune(s[0]))
}

func looksLikeEntry(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= minFields && isMode(fields[0])
}
