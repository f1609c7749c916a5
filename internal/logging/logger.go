package logging

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hanpama/silkweave/internal/config"
)

// Logger is the structured logger used throughout the module.
type Logger = logrus.FieldLogger

// Fields represents structured logging fields
type Fields = logrus.Fields

// NewLogger creates a JSON logger at the level named by LOG_LEVEL.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService returns an entry that tags every record with service.
func NewLoggerWithService(service string) *logrus.Entry {
	return NewLogger().WithField("service", service)
}

// Discard returns a logger that drops everything, for library defaults.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
