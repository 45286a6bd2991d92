// Package logger provides modifications to charmbracelet/log's default logger to be used in various files/packages.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
)

// Redirect sends the global logger and every logger created afterwards to w.
// The TUI owns the terminal, so it points logs at a file before building components.
func Redirect(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
	log.SetOutput(w)
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// New creates a new default charm log.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(writer(), log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: log.GetLevel() == log.DebugLevel,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// Plain creates a logger without prefix, level or timestamp, writing to w.
// It is used for user-facing output such as the CLI and the version banner.
func Plain(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
	})
}
