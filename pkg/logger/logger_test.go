package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(Level(tt.level)))
		})
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init("info", "json", &buf)

	Debug("hidden")
	Info("Favorite added", Int64("joke_id", 7), Bool("persisted", true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Favorite added", entry["msg"])
	assert.EqualValues(t, 7, entry["joke_id"])
	assert.Equal(t, true, entry["persisted"])
}

func TestInitText(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "text", &buf)

	Debug("Fetching jokes", String("url", "http://example.test"))

	assert.Contains(t, buf.String(), "msg=\"Fetching jokes\"")
	assert.Contains(t, buf.String(), "url=http://example.test")
}
