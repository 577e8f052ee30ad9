// Package applog configures the structured logger used across
// podexchange, wrapping github.com/charmbracelet/log the way the
// retrieved teacher's log.go configures its own session log: a
// destination chosen at startup, plus an optional date-named file.
package applog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Options configures New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string

	// Dir, when non-empty, enables file logging: New opens one file
	// there, named per NamePattern (an strftime pattern) from the date at
	// the time New is called, mirroring the retrieved teacher's
	// daily_names log mode. The logger keeps writing to that file for its
	// whole lifetime; it does not switch to a new file when the date
	// changes.
	Dir string

	// NamePattern is an strftime pattern for the daily log file name.
	// Defaults to "podexchange-%Y%m%d.log".
	NamePattern string
}

// New builds a *log.Logger writing to stderr, and additionally to a
// date-named file under opts.Dir when set.
func New(opts Options) (*log.Logger, error) {
	var out io.Writer = os.Stderr

	if opts.Dir != "" {
		f, err := openDailyLogFile(opts.Dir, opts.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("applog: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	logger.SetLevel(parseLevel(opts.Level))
	return logger, nil
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func openDailyLogFile(dir, pattern string) (*os.File, error) {
	if pattern == "" {
		pattern = "podexchange-%Y%m%d.log"
	}
	formatter, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid log name pattern %q: %w", pattern, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	name := formatter.FormatString(time.Now())
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
