// Package logging builds the structured loggers shared by every component.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/config"
)

// New creates the process logger writing to w. The level is read from LOG_LEVEL
// (debug, info, warn, error) and defaults to info.
func New(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := log.ParseLevel(config.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
}

// For returns a component logger derived from base. A nil base uses the
// package default logger so components never need a nil check.
func For(base *log.Logger, component string) *log.Logger {
	if base == nil {
		base = log.Default()
	}
	return base.WithPrefix(component)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
