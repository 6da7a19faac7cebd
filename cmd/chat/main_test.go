package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level_From_Environment(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		muted   []slog.Level
	}{
		{level: "DEBUG", enabled: slog.LevelDebug},
		{level: "INFO", enabled: slog.LevelInfo, muted: []slog.Level{slog.LevelDebug}},
		{level: "warn", enabled: slog.LevelWarn, muted: []slog.Level{slog.LevelDebug, slog.LevelInfo}},
		{level: "ERROR", enabled: slog.LevelError, muted: []slog.Level{slog.LevelInfo, slog.LevelWarn}},
		{level: "verbose", enabled: slog.LevelInfo, muted: []slog.Level{slog.LevelDebug}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			req := require.New(t)
			var buf bytes.Buffer

			// When the logger is built from the configured level
			logger := newLogger(&buf, tt.level)

			// Then records below it are dropped
			req.True(logger.Enabled(context.Background(), tt.enabled))
			for _, level := range tt.muted {
				req.False(logger.Enabled(context.Background(), level))
			}

			// And records at it are written as text
			logger.Log(context.Background(), tt.enabled, "Chat started")
			req.Contains(buf.String(), "msg=\"Chat started\"")
		})
	}
}
