package event

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2025, time.January, 5, 10, 32, 1, 123456000, time.UTC)

func TestEmitWritesExactSchema(t *testing.T) {
	var buf bytes.Buffer
	em := NewEmitter(&buf, "sftp.example.com").WithClock(func() time.Time { return fixed })

	_, err := em.Emit(CategoryUpload, true)
	require.NoError(t, err)
	_, err = em.Emit(CategoryDownload, false)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.JSONEq(t, `{
		"@timestamp": "2025-01-05T10:32:01.123456Z",
		"service": {"type": "SFTP", "name": "SFTPUpload"},
		"log": {"level": "INFO"},
		"hostname": "sftp.example.com",
		"event": {"type": "created"}
	}`, lines[0])
	assert.JSONEq(t, `{
		"@timestamp": "2025-01-05T10:32:01.123456Z",
		"service": {"type": "SFTP", "name": "SFTPDownload"},
		"log": {"level": "ERROR"},
		"hostname": "sftp.example.com",
		"event": {"type": "sent"}
	}`, lines[1])
}

func TestNewTimestampKeepsOffset(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ev := New(CategoryDownload, LevelInfo, "h", fixed.In(loc))
	assert.Equal(t, "2025-01-05T11:32:01.123456+01:00", ev.Timestamp)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelInfo, LevelFor(true))
	assert.Equal(t, LevelError, LevelFor(false))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestEmitWriteError(t *testing.T) {
	_, err := NewEmitter(failingWriter{}, "h").Emit(CategoryUpload, true)
	assert.ErrorContains(t, err, "closed pipe")
}
