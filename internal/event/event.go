// Package event writes the per-run Upload and Download records consumed by the
// log pipeline.
package event

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Category is the operation an event reports on.
type Category string

const (
	CategoryUpload   Category = "Upload"
	CategoryDownload Category = "Download"
)

// Level is the log level an event carries.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// ServiceType is the fixed service.type of every event.
const ServiceType = "SFTP"

// TimestampFormat is ISO 8601 with microseconds and zone offset.
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// Service identifies the monitored operation.
type Service struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Log carries the outcome.
type Log struct {
	Level Level `json:"level"`
}

// Kind is the ECS-style event descriptor.
type Kind struct {
	Type string `json:"type"`
}

// Event is one emitted record.
type Event struct {
	Timestamp string  `json:"@timestamp"`
	Service   Service `json:"service"`
	Log       Log     `json:"log"`
	Hostname  string  `json:"hostname"`
	Event     Kind    `json:"event"`
}

// LevelFor maps an outcome to a level.
func LevelFor(ok bool) Level {
	if ok {
		return LevelInfo
	}
	return LevelError
}

// EventType returns "created" for uploads and "sent" for downloads.
func (c Category) EventType() string {
	if c == CategoryUpload {
		return "created"
	}
	return "sent"
}

// New builds the record for a category.
func New(c Category, level Level, hostname string, at time.Time) Event {
	return Event{
		Timestamp: at.Format(TimestampFormat),
		Service: Service{
			Type: ServiceType,
			Name: ServiceType + string(c),
		},
		Log:      Log{Level: level},
		Hostname: hostname,
		Event:    Kind{Type: c.EventType()},
	}
}

// Emitter writes events as JSON lines.
type Emitter struct {
	w        io.Writer
	hostname string
	now      func() time.Time
}

// NewEmitter creates an emitter for hostname writing to w.
func NewEmitter(w io.Writer, hostname string) *Emitter {
	return &Emitter{w: w, hostname: hostname, now: time.Now}
}

// WithClock replaces the timestamp source.
func (e *Emitter) WithClock(now func() time.Time) *Emitter {
	e.now = now
	return e
}

// Emit writes one record for c.
func (e *Emitter) Emit(c Category, ok bool) (Event, error) {
	ev := New(c, LevelFor(ok), e.hostname, e.now())
	data, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("failed to marshal %s event: %w", c, err)
	}
	if _, err := e.w.Write(append(data, '\n')); err != nil {
		return ev, fmt.Errorf("failed to write %s event: %w", c, err)
	}
	return ev, nil
}
