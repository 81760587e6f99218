package main

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "8", want: slog.Level(8)},
		{in: "bogus", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseLogLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseLogLevel(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseLogLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestSelectedLogLevelPrecedence(t *testing.T) {
	if level, source := selectedLogLevel("debug", "info", "warn"); level != "debug" || source != "flag" {
		t.Fatalf("expected flag to win, got %s from %s", level, source)
	}
	if level, source := selectedLogLevel("", "info", "warn"); level != "info" || source != "env" {
		t.Fatalf("expected env to win, got %s from %s", level, source)
	}
	if level, source := selectedLogLevel("", "", "warn"); level != "warn" || source != "config" {
		t.Fatalf("expected config to win, got %s from %s", level, source)
	}
	if level, source := selectedLogLevel("", "", ""); level != "" || source != "default" {
		t.Fatalf("expected default, got %s from %s", level, source)
	}
}
