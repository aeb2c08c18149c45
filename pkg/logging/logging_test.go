package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		// Lowercase
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		// Uppercase
		{"DEBUG", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},

		// Mixed case (the fix: these should all work now)
		{"Debug", LevelDebug},
		{"Info", LevelInfo},
		{"Warn", LevelWarn},
		{"Warning", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},

		// Empty string defaults to Info
		{"", LevelInfo},

		// Unrecognized defaults to Info
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	logger.Debug("route registered", "pattern", "/echo/")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "route registered", record["msg"])
	assert.Equal(t, "/echo/", record["pattern"])
	assert.Equal(t, "DEBUG", record["level"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNop(t *testing.T) {
	logger := Nop()
	require.NotNil(t, logger)
	logger.Error("discarded")
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		NewHandler(Config{Level: LevelDebug, Output: &debugBuf}),
		NewHandler(Config{Level: LevelWarn, Format: FormatJSON, Output: &warnBuf}),
	)
	logger := slog.New(h).With("component", "test")

	logger.Debug("only debug sink")
	logger.Warn("both sinks")

	assert.Contains(t, debugBuf.String(), "only debug sink")
	assert.Contains(t, debugBuf.String(), "both sinks")
	assert.Contains(t, debugBuf.String(), "component=test")

	assert.NotContains(t, warnBuf.String(), "only debug sink")
	assert.Equal(t, 1, strings.Count(warnBuf.String(), "\n"))
	assert.Contains(t, warnBuf.String(), `"component":"test"`)
}

// failingWriter rejects every write, like a log file on a full disk.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

var errDiskFull = errors.New("no space left on device")

func TestMultiHandler_ReturnsHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(
		NewHandler(Config{Level: LevelInfo, Output: failingWriter{}}),
		NewHandler(Config{Level: LevelInfo, Output: &buf}),
	)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "request served", 0)
	err := h.Handle(context.Background(), r)

	require.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, buf.String(), "request served", "healthy handlers still receive the record")
}

func TestMultiHandler_OnError(t *testing.T) {
	var reported []error
	h := NewMultiHandler(
		NewHandler(Config{Level: LevelInfo, Output: io.Discard}),
		NewHandler(Config{Level: LevelInfo, Format: FormatJSON, Output: failingWriter{}}),
	).OnError(func(err error) { reported = append(reported, err) })

	logger := slog.New(h).With("route", "/").WithGroup("req")
	logger.Info("first")
	logger.Debug("filtered out")
	logger.Warn("second")

	require.Len(t, reported, 2)
	for _, err := range reported {
		assert.ErrorIs(t, err, errDiskFull)
	}
}

func TestMultiHandler_NoErrorWhenAllSucceed(t *testing.T) {
	called := false
	h := NewMultiHandler(NewHandler(Config{Level: LevelInfo, Output: io.Discard})).
		OnError(func(error) { called = true })

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "ok", 0)
	assert.NoError(t, h.Handle(context.Background(), r))
	assert.False(t, called)
}
