// Package sysutil configures process-wide logging at startup.
package sysutil

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerOptions describes the global logger. Service, Env and Version are
// stamped on every event.
type LoggerOptions struct {
	Pretty  bool // human-readable console output, for local use
	Service string
	Env     string
	Version string
}

// SetupLogger points the global logger at w: JSON lines with RFC3339
// timestamps, or console output when Pretty is set.
func SetupLogger(w io.Writer, opts LoggerOptions) {
	zerolog.TimeFieldFormat = time.RFC3339
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	ctx := zerolog.New(w).With().Timestamp().
		Str("service", FirstNonEmpty(opts.Service, "go-api-response")).
		Str("env", opts.Env)
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	log.Logger = ctx.Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level. "warning" is an
// alias for warn; anything outside debug..panic falls back to info.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl < zerolog.DebugLevel || lvl > zerolog.PanicLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLogLevel applies ParseLevel(s) globally and returns the result.
func SetLogLevel(s string) zerolog.Level {
	lvl := ParseLevel(s)
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// LineWriter adapts line-oriented output (gin's route table and debug
// warnings) to the global logger, one event per line at level.
func LineWriter(level zerolog.Level, component string) io.Writer {
	return lineWriter{level: level, component: component}
}

type lineWriter struct {
	level     zerolog.Level
	component string
}

func (w lineWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		log.WithLevel(w.level).Str("component", w.component).Msg(string(line))
	}
	return len(p), nil
}

// FirstNonEmpty returns the first value that is not blank, unmodified, or ""
// when there is none.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
