// Package log wires the module's structured logging through a single
// package-level logrus.Logger, following the pack's convention
// (a5c-ai-hub) of configuring one shared logger rather than threading a
// logger value through every call site.
package log

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = logrus.StandardLogger()
)

// Configure sets the package logger's level and formatter. level must be a
// name accepted by logrus.ParseLevel ("debug", "info", "warn", ...); an
// unrecognised level falls back to info rather than failing configuration.
func Configure(level string, json bool) {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger = l
}

// L returns the package-level logger.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
