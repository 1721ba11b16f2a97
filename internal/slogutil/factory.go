package slogutil

import (
	"io"
	"log/slog"
	"os"

	"easyserver/internal/config"
	"easyserver/internal/paths"
)

// LoggerFactory builds loggers from the logging section of the config.
// Precedence for the level: CLI flag > config > info.
type LoggerFactory struct {
	baseDir  string
	config   *config.Config
	cliLevel slog.Level // 0 means not set
	stderr   io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory.
// cliLevel should be 0 if no CLI override was specified.
func NewLoggerFactory(baseDir string, cfg *config.Config, cliLevel slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		baseDir:  baseDir,
		config:   cfg,
		cliLevel: cliLevel,
		stderr:   os.Stderr,
	}
}

// ServerLogger creates the logger for the HTTP server. Records always go to
// stderr; with logging.file set they are also written to
// <baseDir>/.easyserver/logs/server.log.
func (f *LoggerFactory) ServerLogger() (*slog.Logger, error) {
	level := f.effectiveLevel()
	format := f.config.Logging.Format
	console := NewHandler(f.stderr, format, level)

	if !f.config.Logging.File {
		return slog.New(console), nil
	}

	w, err := OpenLogWriter(paths.ServerLogPath(f.baseDir), f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
	if err != nil {
		return slog.New(console), err
	}
	f.closers = append(f.closers, w)

	return NewTeeLogger(console, NewHandler(w, format, level)), nil
}

// LogPath returns where ServerLogger writes its file
func (f *LoggerFactory) LogPath() string {
	return paths.ServerLogPath(f.baseDir)
}

// effectiveLevel returns the level to log at
func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != 0 {
		return f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
