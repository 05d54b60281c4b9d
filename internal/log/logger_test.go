package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogger() {
	logger = nil
	once = *new(sync.Once)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), "decode %q", buf.String())
	return out
}

func TestSetupWriterJSON(t *testing.T) {
	resetLogger()
	t.Cleanup(resetLogger)

	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "json")
	require.NotNil(t, logger)

	Debug("visible at debug")
	out := decodeLine(t, &buf)
	assert.Equal(t, "visible at debug", out["msg"])
	assert.Equal(t, "DEBUG", out["level"])
}

func TestSetupWriterText(t *testing.T) {
	resetLogger()
	t.Cleanup(resetLogger)

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "text")
	Info("dropped")
	Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestContextHelpers(t *testing.T) {
	t.Cleanup(resetLogger)

	tests := []struct {
		name  string
		make  func() *slog.Logger
		key   string
		value string
	}{
		{"component", func() *slog.Logger { return WithComponent("spawn") }, "component", "spawn"},
		{"profile", func() *slog.Logger { return WithProfile("CLAUDE_CODE:PLAN") }, "profile", "CLAUDE_CODE:PLAN"},
		{"process", func() *slog.Logger { return WithProcess("proc-1") }, "process_id", "proc-1"},
		{"request", func() *slog.Logger { return WithRequest("req-9") }, "request_id", "req-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger = slog.New(slog.NewJSONHandler(&buf, nil))

			tt.make().Info("hello")

			out := decodeLine(t, &buf)
			assert.Equal(t, tt.value, out[tt.key])
			assert.Equal(t, "hello", out["msg"])
		})
	}
}
