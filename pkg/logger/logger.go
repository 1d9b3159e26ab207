// Package logger builds the slog loggers used by the aletheia commands and
// the API server.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type settings struct {
	level   slog.Level
	json    bool
	pretty  bool
	source  bool
	writers []io.Writer
}

// Option adjusts a logger built by New.
type Option func(*settings)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		s.level = slog.LevelInfo
		if debug {
			s.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the colourised charm handler meant for terminals.
func WithPretty(pretty bool) Option {
	return func(s *settings) {
		s.pretty = pretty
	}
}

// WithJSON selects one JSON object per record. It wins over WithPretty.
func WithJSON(json bool) Option {
	return func(s *settings) {
		s.json = json
	}
}

// WithWriter sends records to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters sends every record to each of ws.
func WithWriters(ws ...io.Writer) Option {
	return func(s *settings) {
		s.writers = ws
	}
}

// WithSource adds the caller's file:line.
func WithSource(source bool) Option {
	return func(s *settings) {
		s.source = source
	}
}

// New builds a logger. The zero configuration writes text records at Info
// level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	s := &settings{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(s)
	}

	w := output(s.writers)
	switch {
	case s.json:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: s.level, AddSource: s.source}))
	case s.pretty:
		return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    s.source,
			Level:           charmlog.Level(s.level),
		}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.level, AddSource: s.source}))
	}
}

func output(ws []io.Writer) io.Writer {
	switch len(ws) {
	case 0:
		return os.Stdout
	case 1:
		return ws[0]
	default:
		return io.MultiWriter(ws...)
	}
}

// Nop returns a logger that drops everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
