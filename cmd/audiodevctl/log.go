package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logBackend writes log lines to stdout and the rotated log file, when
// configured.
type logBackend struct {
	stdOut     io.Writer
	logRotator *rotator.Rotator
}

func (bknd *logBackend) Write(b []byte) (int, error) {
	if bknd.stdOut != nil {
		bknd.stdOut.Write(b)
	}
	if bknd.logRotator != nil {
		bknd.logRotator.Write(b)
	}

	return len(b), nil
}

func (bknd *logBackend) Close() error {
	if bknd.logRotator == nil {
		return nil
	}
	return bknd.logRotator.Close()
}

// initLogging returns the app and library loggers, configured at the debug
// level of cfg.
func initLogging(cfg *config) (*logBackend, func(subsys string) slog.Logger, error) {
	bknd := &logBackend{stdOut: os.Stderr}
	if cfg.LogFile != "" {
		logDir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(logDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logRotator, err := rotator.New(cfg.LogFile, 1024, false, cfg.MaxLogFiles)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		bknd.logRotator = logRotator
	}

	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.DebugLevel)
	}

	logBknd := slog.NewBackend(bknd)
	newLogger := func(subsys string) slog.Logger {
		log := logBknd.Logger(subsys)
		log.SetLevel(level)
		return log
	}
	return bknd, newLogger, nil
}
