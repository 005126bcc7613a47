package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	l := slog.New(NewPrettyHandler(&buf, lv, ""))

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.With("user_id", 7).Info("session created", "stage", "awaiting_format")
	out := buf.String()
	assert.Contains(t, out, "[CLIPNOVA]")
	assert.Contains(t, out, "session created")
	assert.Contains(t, out, "user_id")
	assert.Contains(t, out, "stage")

	buf.Reset()
	lv.Set(slog.LevelDebug)
	l.Debug("visible")
	assert.Contains(t, buf.String(), "DEBUG")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewZap(t *testing.T) {
	l, err := NewZap("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	l, err = NewZap("info")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(0))
}
