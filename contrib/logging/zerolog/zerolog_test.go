package zerolog

import (
	"bytes"
	"encoding/json"
	"testing"

	zl "github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoggerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(zl.New(&buf))

	logger.Info("request queued", "method", "POST", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "request queued", entry["message"])
	require.Equal(t, "POST", entry["method"])
	require.Equal(t, float64(2), entry["attempt"])
	require.Equal(t, "info", entry["level"])
}

func TestLoggerOddPairs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(zl.New(&buf))

	logger.Warn("partial", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "dangling", entry["extra"])
}
