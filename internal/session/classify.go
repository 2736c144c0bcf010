package session

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Cause identifies why a scripted session failed.
type Cause string

const (
	CauseUnknown     Cause = "unknown"
	CauseAuth        Cause = "auth_denied"
	CauseHostKey     Cause = "host_key"
	CauseConnection  Cause = "connection"
	CauseUnknownHost Cause = "unknown_host"
	CauseTimeout     Cause = "timeout"
	CauseClosed      Cause = "closed"
	CauseSpawn       Cause = "spawn"
	CauseCanceled    Cause = "canceled"
)

// Ordered: a host key mismatch also prints "Connection closed", so it is checked first.
var causePatterns = []struct {
	cause    Cause
	patterns []*regexp.Regexp
}{
	{CauseHostKey, []*regexp.Regexp{
		regexp.MustCompile(`(?i)REMOTE HOST IDENTIFICATION HAS CHANGED`),
		regexp.MustCompile(`(?i)Host key verification failed`),
	}},
	{CauseAuth, []*regexp.Regexp{
		regexp.MustCompile(`(?i)Permission denied`),
		regexp.MustCompile(`(?i)Authentication failed`),
		regexp.MustCompile(`(?i)Too many authentication failures`),
	}},
	{CauseUnknownHost, []*regexp.Regexp{
		regexp.MustCompile(`(?i)Could not resolve hostname`),
		regexp.MustCompile(`(?i)Name or service not known`),
	}},
	{CauseConnection, []*regexp.Regexp{
		regexp.MustCompile(`(?i)Connection refused`),
		regexp.MustCompile(`(?i)Connection timed out`),
		regexp.MustCompile(`(?i)No route to host`),
		regexp.MustCompile(`(?i)Network is unreachable`),
		regexp.MustCompile(`(?i)Connection (reset|closed)`),
	}},
}

// DetectCause checks a single transcript line for a known client failure message.
func DetectCause(line string) (Cause, bool) {
	for _, group := range causePatterns {
		for _, pattern := range group.patterns {
			if pattern.MatchString(line) {
				return group.cause, true
			}
		}
	}
	return CauseUnknown, false
}

// Classify determines the cause of a failed session from its transcript, falling
// back to the expectation error when the client printed nothing recognisable.
func Classify(transcript string, err error) Cause {
	best := CauseUnknown
	rank := len(causePatterns)
	for _, line := range strings.Split(transcript, "\n") {
		cause, ok := DetectCause(line)
		if !ok {
			continue
		}
		for i, group := range causePatterns {
			if group.cause == cause && i < rank {
				best, rank = cause, i
			}
		}
	}
	if best != CauseUnknown {
		return best
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return CauseTimeout
	case errors.Is(err, ErrClosed):
		return CauseClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CauseCanceled
	}
	return CauseUnknown
}
