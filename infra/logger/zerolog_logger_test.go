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
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "config").With("store", "online")
	l.Infof("filtered")
	l.Warnf("port %d", 6379)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "config", entry["component"])
	assert.Equal(t, "online", entry["store"])
	assert.Equal(t, "port 6379", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	assert.Equal(t, l, l.With("k", "v"))
}
