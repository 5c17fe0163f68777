package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_TextOutput(t *testing.T) {
	defer Level.Set(slog.LevelInfo)

	var buf bytes.Buffer
	l := New(&buf).With("component", "test")

	Level.Set(slog.LevelInfo)
	l.Infof("parsed %d cells", 3)
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg="parsed 3 cells"`)
	assert.Contains(t, out, "component=test")
	assert.NotContains(t, out, "hidden")
}

func TestLevel_SetByName(t *testing.T) {
	defer Level.Set(slog.LevelInfo)

	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		"warning": slog.LevelWarn,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			Level.SetByName(name)
			assert.Equal(t, want, Level.lvl.Level())
		})
	}
}

func TestLogger_NilIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("nothing")
		l.With("a", 1).Warning("nothing")
	})
	assert.NotNil(t, Or(l))
}
