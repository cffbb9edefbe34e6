package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger writes JSON entries to stderr; stdout stays reserved for reports.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger
}

// FileLogger tees JSON entries to stderr and to the file at logPath.
// An empty logPath yields a console-only logger and a nil file.
func FileLogger(level logrus.Level, logPath string) (*os.File, *logrus.Logger, error) {
	logger := ConsoleLogger(level)
	if logPath == "" {
		return nil, logger, nil
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, logger, nil
}
