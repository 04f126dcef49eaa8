package logger

import (
	"io"
	"os"
	"path/filepath"

	"sigea-portal-svc/src/internal/config"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger from the logs section.
func Init(cfg *config.Configuration) {
	level, err := logrus.ParseLevel(cfg.Logs.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Logs.EnableJSONOutput {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Logs.Path == "" {
		logrus.SetOutput(os.Stdout)
		return
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Logs.Path), 0o755); err != nil {
		logrus.WithError(err).Warn("Cannot create log directory, logging to stdout only")
		return
	}

	file, err := os.OpenFile(cfg.Logs.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.WithError(err).Warn("Cannot open log file, logging to stdout only")
		return
	}

	logrus.SetOutput(io.MultiWriter(os.Stdout, file))
	logrus.WithField("path", cfg.Logs.Path).Debug("File logging enabled")
}
