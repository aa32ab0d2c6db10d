package sysutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureGlobal restores the global logger and level after the test.
func captureGlobal(t *testing.T) {
	t.Helper()
	prev, lvl := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(lvl)
	})
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"Warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"trace", zerolog.InfoLevel},
		{"disabled", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q)=%v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	captureGlobal(t)
	if got := SetLogLevel("error"); got != zerolog.ErrorLevel || zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Fatalf("SetLogLevel(error)=%v global=%v", got, zerolog.GlobalLevel())
	}
}

func TestSetupLogger(t *testing.T) {
	captureGlobal(t)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	SetupLogger(&buf, LoggerOptions{Service: "contacts", Env: "local", Version: "v1.2.3"})
	log.Info().Msg("hello")
	for _, want := range []string{`"service":"contacts"`, `"env":"local"`, `"version":"v1.2.3"`, `"message":"hello"`, `"time":`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("json log missing %s: %s", want, buf.String())
		}
	}

	buf.Reset()
	SetupLogger(&buf, LoggerOptions{Env: "local"})
	log.Info().Msg("defaults")
	if !strings.Contains(buf.String(), `"service":"go-api-response"`) || strings.Contains(buf.String(), `"version"`) {
		t.Fatalf("default service or stray version: %s", buf.String())
	}

	buf.Reset()
	SetupLogger(&buf, LoggerOptions{Pretty: true})
	log.Info().Msg("pretty")
	if strings.Contains(buf.String(), `"message"`) || !strings.Contains(buf.String(), "pretty") {
		t.Fatalf("expected console output, got: %s", buf.String())
	}
}

func TestLineWriter(t *testing.T) {
	captureGlobal(t)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	w := LineWriter(zerolog.DebugLevel, "gin")
	in := "[GIN-debug] GET /health\n\n[GIN-debug] GET /metrics\n"
	n, err := w.Write([]byte(in))
	if err != nil || n != len(in) {
		t.Fatalf("Write=%d, %v", n, err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want one event per non-blank line, got %d:\n%s", len(lines), buf.String())
	}
	for _, l := range lines {
		if !strings.Contains(l, `"level":"debug"`) || !strings.Contains(l, `"component":"gin"`) {
			t.Fatalf("unexpected event %s", l)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{" ", "\t", "\n"}, ""},
		{[]string{"   ", "  hello  ", "world"}, "  hello  "},
		{[]string{"alpha", "beta"}, "alpha"},
	}
	for _, tc := range cases {
		if got := FirstNonEmpty(tc.in...); got != tc.want {
			t.Fatalf("FirstNonEmpty(%q)=%q; want %q", tc.in, got, tc.want)
		}
	}
}
