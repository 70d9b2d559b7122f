package obslog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewTextLogger(buf, slog.LevelInfo)
	require.NotNil(t, logger)

	logger.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
}

func TestNewJSONLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewJSONLogger(buf, slog.LevelInfo)
	require.NotNil(t, logger)

	logger.Info("test message", "key", "value")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "test message", parsed["msg"])
	assert.Equal(t, "value", parsed["key"])
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewTextLogger(buf, slog.LevelWarn)

	logger.Info("filtered")
	logger.Warn("kept")

	output := buf.String()
	assert.NotContains(t, output, "filtered")
	assert.Contains(t, output, "kept")
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNopLogger()
	require.NotNil(t, logger)
	// Must not panic and must produce nothing observable.
	logger.Info("dropped", "a", 1)
	logger.With("x", "y").Error("also dropped")
}

func TestAttributeHelpers(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewJSONLogger(buf, slog.LevelDebug)

	logger.WithComponent("runtime").WithProtocol("counter").Info("called",
		Method("increment"),
		EventName("Tick"),
		Key("count"),
		Path("/tmp/state.json"),
		Hash("abc123"),
		Duration(1500*time.Millisecond),
		Count(3),
		Error(errors.New("boom")),
	)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "runtime", parsed["component"])
	assert.Equal(t, "counter", parsed["protocol"])
	assert.Equal(t, "increment", parsed["method"])
	assert.Equal(t, "Tick", parsed["event"])
	assert.Equal(t, "count", parsed["key"])
	assert.Equal(t, float64(1500), parsed["duration_ms"])
	assert.Equal(t, float64(3), parsed["count"])
	assert.Equal(t, "boom", parsed["error"])
}

func TestErrorAttrWithNil(t *testing.T) {
	attr := Error(nil)
	assert.Equal(t, slog.Attr{}, attr)
}
