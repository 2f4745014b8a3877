// Package logging builds the tool logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// New returns a configured logger. A CLI defaults to the plain text
// formatter; jsonFormat switches to structured output for machine
// consumption. An unknown level falls back to info.
func New(level string, jsonFormat bool) *logrus.Logger {
	logger := logrus.New()
	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
