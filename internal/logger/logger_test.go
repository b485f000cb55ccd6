// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	tt := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range tt {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tc.level, "text", &buf)
			assert.NotNil(t, log)
			assert.Equal(t, tc.expected, LogLevel())
			assert.True(t, log.Enabled(context.Background(), tc.expected))
			assert.False(t, log.Enabled(context.Background(), tc.expected-1))
		})
	}
}

func TestFormats(t *testing.T) {
	var buf bytes.Buffer

	log := New("info", "json", &buf)
	log.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	log = New("info", "text", &buf)
	log.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
	// source is shortened to at most two directories plus the file
	assert.Contains(t, buf.String(), "logger/logger_test.go")
}

func TestInvalidFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		New("info", "yaml", &bytes.Buffer{})
	})
}
