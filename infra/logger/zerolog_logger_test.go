package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := New("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "watch", "warn")
	l.Infof("hidden")
	l.Warnf("plan %s changed", "today.yaml")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "watch", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "plan today.yaml changed", entry["message"])
}

func TestZerologLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "x", "bogus")
	l.Debugw("hidden", map[string]any{"a": 1})
	assert.Empty(t, buf.String())
	l.Infof("shown")
	assert.Contains(t, buf.String(), "shown")
}
