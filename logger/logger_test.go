package logger

import (
	"bytes"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, Level("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, Level("warn"))
	assert.Equal(t, zerolog.InfoLevel, Level("verbose"))
}

func TestNewLoggerTo(t *testing.T) {
	t.Setenv(levelEnvVariable, LOG_LEVEL_WARN)
	SetupLogging()

	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "Decoder")
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Decoder", line["component"])
	assert.Equal(t, "warn", line["level_name"])
	assert.Equal(t, "kept", line["message"])
	assert.Contains(t, line, "timestamp")
}
