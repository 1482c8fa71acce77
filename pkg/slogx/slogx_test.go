package slogx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output carries the sdk tag", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "info", Output: &buf})
		logger.Info("hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "hello", record["msg"])
		require.Equal(t, "stytch", record["sdk"])
	})

	t.Run("level filters below threshold", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "warn", Output: &buf})
		logger.Info("dropped")
		require.Zero(t, buf.Len())

		logger.Warn("kept")
		require.NotZero(t, buf.Len())
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Format: "text", Output: &buf})
		logger.Info("hello")
		require.Contains(t, buf.String(), "msg=hello")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, parseLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	// Must be safe to log to and never panic.
	Discard().Info("dropped", "key", "value")
}
