// Package logging builds the JSON diagnostic logger shared by a run.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/watchfire-io/sftpmon/internal/models"
)

// Writer returns the sink for the configured output.
func Writer(output string) io.Writer {
	if output == models.OutputStderr {
		return os.Stderr
	}
	return os.Stdout
}

// New returns a JSON logger writing to w. Every record carries the service
// identity from cfg and the run id.
func New(cfg models.LoggingConfig, w io.Writer, runID string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "@timestamp",
		LevelKey:       "log.level",
		NameKey:        "log.logger",
		MessageKey:     "message",
		StacktraceKey:  "error.stack_trace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level)
	logger := zap.New(core).With(
		zap.String("service.name", cfg.ServiceName),
		zap.String("service.type", cfg.ServiceType),
		zap.String("run_id", runID),
	)
	return logger, nil
}

// Fallback returns a logger with default settings, for errors raised before the
// configuration could be loaded.
func Fallback(runID string) *zap.Logger {
	logger, err := New(models.NewMonitorConfig().Logging, os.Stdout, runID)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
