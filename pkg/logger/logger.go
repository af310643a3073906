// Package logger builds the slog loggers used across synergy.
//
// Commands log to the terminal through the charmbracelet/log handler;
// the serve commands can add a JSON file next to it with Multi.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type format int

const (
	formatText format = iota
	formatJSON
	formatPretty
)

type config struct {
	level   slog.Level
	format  format
	source  bool
	writers []io.Writer
}

// New creates a *slog.Logger. Without options it writes text records at Info
// level to stdout. WithPretty takes precedence over WithJSON.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	return slog.New(c.handler(c.output()))
}

// Console is the logger commands use: pretty records on w, Debug level when
// debug is set.
func Console(w io.Writer, debug bool) *slog.Logger {
	return New(WithWriter(w), WithPretty(true), WithDebug(debug))
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func (c *config) output() io.Writer {
	switch len(c.writers) {
	case 0:
		return os.Stdout
	case 1:
		return c.writers[0]
	default:
		return io.MultiWriter(c.writers...)
	}
}

func (c *config) handler(w io.Writer) slog.Handler {
	switch c.format {
	case formatPretty:
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
	case formatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source})
	}
}
