package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "info").With(String("component", "scoring"))

	log.Info("scored",
		Float64("overall", 83.25),
		Int("platforms", 3),
		Strings("degraded", []string{"eBay"}),
		Duration("took", 2*time.Second),
		Bool("cached", false),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "scored", entry["message"])
	assert.Equal(t, "scoring", entry["component"])
	assert.Equal(t, 83.25, entry["overall"])
	assert.Equal(t, float64(3), entry["platforms"])
	assert.Equal(t, false, entry["cached"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)

	l, err := New(nil)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNop(t *testing.T) {
	Nop().Error("discarded", String("k", "v"))
}
