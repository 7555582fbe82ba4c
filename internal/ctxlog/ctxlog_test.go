// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectDefault bool
	}{
		{
			name: "context with logger",
			setupContext: func() context.Context {
				return New(context.Background(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
			},
			expectDefault: false,
		},
		{
			name:          "context without logger",
			setupContext:  context.Background,
			expectDefault: true,
		},
		{
			name: "nil logger stored",
			setupContext: func() context.Context {
				return New(context.Background(), nil)
			},
			expectDefault: true,
		},
		{
			name: "wrong type stored",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, "not a logger")
			},
			expectDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Logger(tt.setupContext())
			require.NotNil(t, logger)

			if tt.expectDefault {
				assert.Same(t, DefaultLogger, logger)
			} else {
				assert.NotSame(t, DefaultLogger, logger)
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	tests := []struct {
		name     string
		logFunc  func(context.Context, string, ...any)
		message  string
		expected string
	}{
		{name: "info", logFunc: Info, message: "info message", expected: "INFO"},
		{name: "debug", logFunc: Debug, message: "debug message", expected: "DEBUG"},
		{name: "warn", logFunc: Warn, message: "warn message", expected: "WARN"},
		{name: "error", logFunc: Error, message: "error message", expected: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, tt.message, "drive", "E")

			out := buf.String()
			assert.Contains(t, out, tt.expected)
			assert.Contains(t, out, tt.message)
			assert.Contains(t, out, "drive=E")
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  slog.Level
		valid bool
	}{
		{in: "DEBUG", want: slog.LevelDebug, valid: true},
		{in: "info", want: slog.LevelInfo, valid: true},
		{in: " Warn ", want: slog.LevelWarn, valid: true},
		{in: "warning", want: slog.LevelWarn, valid: true},
		{in: "ERROR", want: slog.LevelError, valid: true},
		{in: "", want: slog.LevelInfo, valid: false},
		{in: "verbose", want: slog.LevelInfo, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	envName := levelEnvVar()
	assert.Contains(t, envName, "_LOG_LEVEL")

	t.Setenv(envName, "DEBUG")
	assert.Equal(t, slog.LevelDebug, logLevelFromEnv())

	t.Setenv(envName, "ERROR")
	assert.Equal(t, slog.LevelError, logLevelFromEnv())

	t.Setenv(envName, "nonsense")
	assert.Equal(t, slog.LevelInfo, logLevelFromEnv())
}

func TestNewForTUI(t *testing.T) {
	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelInfo)

	var buf bytes.Buffer

	ctx := NewForTUI(context.Background(), &buf)
	Info(ctx, "captured while tui runs")

	assert.Contains(t, buf.String(), "captured while tui runs")
	assert.NotContains(t, buf.String(), "\x1b[", "tui logger must not colour its output")
}
